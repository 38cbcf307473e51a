package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"monocart/internal/apiclient"
	"monocart/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, closeApp := newRootCmd(os.Stdout, storage.Open)
	err := root.ExecuteContext(ctx)
	if cerr := closeApp(); cerr != nil {
		fmt.Fprintln(os.Stderr, "failed to close storage:", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, apiclient.Message(err))
		stop()
		os.Exit(1)
	}
}
