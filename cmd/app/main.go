package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/crmapi/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "crmapi",
		Usage: "Business-data API with an audit trail",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./crmapi.sqlite",
				Usage: "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "bootstrap-admin-name",
				Value:   "admin",
				Sources: cli.EnvVars("CRMAPI_BOOTSTRAP_ADMIN_NAME"),
				Usage:   "Display name for the bootstrap admin user",
			},
			&cli.StringFlag{
				Name:    "bootstrap-admin-email",
				Sources: cli.EnvVars("CRMAPI_BOOTSTRAP_ADMIN_EMAIL"),
				Usage:   "Email of an admin user to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-admin-password",
				Sources: cli.EnvVars("CRMAPI_BOOTSTRAP_ADMIN_PASSWORD"),
				Usage:   "Password for the bootstrap admin user",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("CRMAPI_WEBHOOK_URL"),
				Usage:   "Change notification webhook target URL",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("CRMAPI_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:               c.String("addr"),
				DBPath:             c.String("db-path"),
				BootstrapAdminName: c.String("bootstrap-admin-name"),
				BootstrapEmail:     c.String("bootstrap-admin-email"),
				BootstrapPassword:  c.String("bootstrap-admin-password"),
				WebhookURL:         c.String("webhook-url"),
				WebhookSecret:      c.String("webhook-secret"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
