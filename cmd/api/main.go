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

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM, then drain.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("eduweb api starting")
	if err := run(ctx); err != nil {
		stop()
		log.Fatalf("eduweb api stopped with error: %v", err)
	}
}

func run(ctx context.Context) error {
	app, err := bootstrap.BuildAPI(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap api: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	return app.Run(ctx)
}
