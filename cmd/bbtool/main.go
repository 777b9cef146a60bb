package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/moasq/bbtool/internal/commands"
	"github.com/moasq/bbtool/internal/terminal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			terminal.Error(err.Error())
		}
		os.Exit(1)
	}
}
