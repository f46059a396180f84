package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stockroom/stockroom/cmd/stockroom/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.RunWorker(ctx); err != nil {
		slog.Default().Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}
