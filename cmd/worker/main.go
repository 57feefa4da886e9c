package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduweb/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run outbox relays and idempotent consumers until SIGINT/SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("eduweb worker starting")
	if err := run(ctx); err != nil {
		stop()
		log.Fatalf("eduweb worker stopped with error: %v", err)
	}
}

func run(ctx context.Context) error {
	app, err := bootstrap.BuildWorker(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap worker: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	return app.Run(ctx)
}
