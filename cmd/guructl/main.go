// Command guructl drives a guruhub session from the terminal.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/guruhub/internal/client/api"
	"github.com/geocoder89/guruhub/internal/client/session"
	"github.com/geocoder89/guruhub/internal/client/tokenstore"
	"github.com/geocoder89/guruhub/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadClient()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	a := &app{
		session: session.New(api.New(cfg.APIURL, nil), tokenstore.NewFile(cfg.TokenFile), log),
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	os.Exit(a.run(ctx, os.Args[1:]))
}
