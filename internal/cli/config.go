package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/wallpaperctl/internal/config"
)

// newConfigCmd создаёт команду config.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Работа с файлом конфигурации",
		Annotations: map[string]string{annotationNoSetup: "true"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "example",
		Short:       "Вывести пример файла конфигурации",
		Annotations: map[string]string{annotationNoSetup: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), configExample())
		},
	})

	return cmd
}

// configExample возвращает пример конфигурации с путём для сохранения.
func configExample() string {
	hint := "# Сохраните как ./wallpaperctl.yaml"
	if home, err := os.UserHomeDir(); err == nil {
		hint += " или " + filepath.Join(home, ".config", "wallpaperctl", "config.yaml")
	}
	return hint + "\n" + config.GenerateExampleConfig()
}
