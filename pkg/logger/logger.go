package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New создает логгер для старта приложения, до загрузки конфигурации.
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", "quizspark").
		Logger().
		Level(zerolog.InfoLevel)
}

func NewWithConfig(level string, pretty, noColor bool) zerolog.Logger {
	return newWithWriter(os.Stdout, level, pretty, noColor)
}

func newWithWriter(out io.Writer, level string, pretty, noColor bool) zerolog.Logger {
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "quizspark").
		Logger().
		Level(lvl)
}
