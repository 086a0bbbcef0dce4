package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	_ "github.com/tanpawarit/yearboard/pkg/logger/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(rootOptions{}).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("yearboard exited with error")
		stop()
		os.Exit(1)
	}
}
