package main

import (
	"context"
	"os"

	"github.com/RubachokBoss/quizspark/internal/cli"
	"github.com/RubachokBoss/quizspark/pkg/logger"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		log := logger.New()
		log.Error().Err(err).Msg("quizspark exited with error")
		os.Exit(1)
	}
}
