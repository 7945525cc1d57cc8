package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/artemshloyda/wallpaperctl/internal/config"
)

// Vips кодирует рендишены через внешний бинарник vips.
type Vips struct {
	// path - путь к бинарнику vips.
	path string
}

// NewVips создаёт движок vips.
func NewVips(vipsPath string) *Vips {
	return &Vips{path: vipsPath}
}

// Name возвращает имя движка.
func (v *Vips) Name() string {
	return string(config.EngineVips)
}

// Encode запускает vips thumbnail (с resize) или vips copy (без resize).
// vips определяет формат по расширению файла, поэтому временный файл сохраняет расширение.
func (v *Vips) Encode(ctx context.Context, job Job) error {
	// Например: photo.converting.jpg[Q=92,optimize_coding,strip,background=255]
	out := job.DstPath + SaveSuffix(job.Profile)

	var cmd *exec.Cmd
	if job.Resize() {
		// --size force: размеры уже посчитаны FitSize, vips не должен их менять.
		cmd = exec.CommandContext(ctx, v.path, "thumbnail", job.SrcPath, out,
			strconv.Itoa(job.Width),
			"--height", strconv.Itoa(job.Height),
			"--size", "force",
		)
	} else {
		cmd = exec.CommandContext(ctx, v.path, "copy", job.SrcPath, out)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("vips %s failed: %w: %s", cmd.Args[1], err, bytes.TrimSpace(stderr.Bytes()))
		}
		return fmt.Errorf("vips %s failed: %w", cmd.Args[1], err)
	}
	return nil
}

// SaveSuffix возвращает параметры сохранения vips для профиля.
func SaveSuffix(p config.Profile) string {
	switch p.Format {
	case config.FormatWebP:
		return fmt.Sprintf("[Q=%d,effort=6,strip]", p.Quality)
	case config.FormatPNG:
		return "[compression=9,strip]"
	default:
		// JPEG не хранит альфу: фон белый.
		return fmt.Sprintf("[Q=%d,optimize_coding,strip,background=255]", p.Quality)
	}
}

// CheckHealth проверяет, что vips запускается.
func (v *Vips) CheckHealth(ctx context.Context) error {
	if err := exec.CommandContext(ctx, v.path, "--version").Run(); err != nil {
		return fmt.Errorf("vips не работает: %w", err)
	}
	return nil
}

/*
Возможные расширения:
- Добавить VIPS_OPENCL для GPU ускорения
- Добавить retry логику при временных ошибках
*/
