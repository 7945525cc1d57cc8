// Package logger настраивает структурированное логирование (zerolog).
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// FormatConsole - человекочитаемый вывод.
	FormatConsole = "console"
	// FormatJSON - одна JSON запись на строку.
	FormatJSON = "json"
)

// Options настраивает логгер.
type Options struct {
	Level   zerolog.Level
	Format  string
	Output  io.Writer
	NoColor bool
}

// New создаёт логгер. По умолчанию пишет в stderr в формате console.
func New(opts Options) zerolog.Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if !strings.EqualFold(opts.Format, FormatJSON) {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
			NoColor:    opts.NoColor,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.
		New(output).
		With().
		Timestamp().
		Logger().
		Level(opts.Level)
}

// ParseLevel разбирает уровень логирования; пустое или неизвестное значение = info.
func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}
