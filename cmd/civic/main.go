// Command civic is the command-line client of the civic issue reporting
// service: sign in, file reports with a location and photo, and follow
// their status.
//
// Configuration comes from config.yaml (or CONFIG_PATH), .env and the
// environment. Exit codes: 0 = success, 1 = error, 2 = authentication required.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/civic-client/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}

	msg := err.Error()
	if domain.KindOf(err) != domain.KindUnknown {
		msg = domain.UserMessage(err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	if errors.Is(err, domain.ErrUnauthorized) {
		os.Exit(2)
	}
	os.Exit(1)
}
