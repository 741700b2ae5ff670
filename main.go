// Command pdfseal signs PDF documents with an RSA key and verifies them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pdfseal/pdfseal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx, os.Args[1:])
}
