package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"company_sync/internal/app/cli"
)

func main() {
	// Ctrl-C で実行中のフローを止め、それまでの集計を出力する
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewApp().NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
