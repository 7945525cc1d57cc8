package converter

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/artemshloyda/wallpaperctl/internal/config"
)

// FitSize вычисляет размеры по правилу contain-fit.
// Изображение, уже вписанное в рамку, не меняется (никакого апскейла).
// Иначе обе оси масштабируются на min(maxW/srcW, maxH/srcH)
// и округляются независимо друг от друга (половины - к чётному).
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}
	ratio := math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))

	w := int(math.RoundToEven(float64(srcW) * ratio))
	h := int(math.RoundToEven(float64(srcH) * ratio))
	return max(w, 1), max(h, 1)
}

// DstPath строит путь рендишена: <profileDir>/<period>/<basename>.<ext>.
// Пустой period (режим --directory) кладёт файл прямо в profileDir.
func DstPath(profileDir, period, srcPath string, format config.OutputFormat) string {
	base := filepath.Base(srcPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(profileDir, period, name+"."+format.Extension())
}

// tmpPath возвращает путь временного файла с тем же расширением,
// чтобы кодек выбирался по расширению.
func tmpPath(dstPath string) string {
	ext := filepath.Ext(dstPath)
	return strings.TrimSuffix(dstPath, ext) + ".converting" + ext
}
