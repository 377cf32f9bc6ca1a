package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unexbilletera/unex-api/internal/app"
	"github.com/unexbilletera/unex-api/internal/clients/redis"
	"github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "unex-api",
		Short:         "UNEX backoffice and COELSA integration API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads .env, builds the logger, then reads the config.
func bootstrap() (*logger.Logger, app.Config, error) {
	if err := app.LoadDotEnv(); err != nil {
		return nil, app.Config{}, err
	}
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loading environment variables...")
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, app.Config{}, err
	}
	return log, cfg, nil
}

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := app.New(ctx, log, cfg)
			if err != nil {
				log.Sync()
				return err
			}
			defer a.Close()

			if !skipMigrate {
				if err := a.Migrate(); err != nil {
					return fmt.Errorf("postgres automigrate: %w", err)
				}
			}
			if err := a.Run(ctx); err != nil {
				log.Error("server stopped", "error", err)
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run AutoMigrate before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema to Postgres and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), log, cfg)
			if err != nil {
				log.Sync()
				return err
			}
			defer a.Close()
			if err := a.Migrate(); err != nil {
				return fmt.Errorf("postgres automigrate: %w", err)
			}
			log.Info("Migrations applied")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			tok, err := services.NewTokenService(log, cfg.JWTSecretKey).Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "backoffice", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Tail operation status-change events from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log, cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.RedisAddr == "" {
				return fmt.Errorf("REDIS_ADDR is required")
			}
			rdb, err := redis.NewClient(ctx, cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer rdb.Close()
			bus, err := redis.NewOperationEventBus(log, rdb, cfg.RedisChannel)
			if err != nil {
				return err
			}
			defer bus.Close()

			out := cmd.OutOrStdout()
			if err := bus.StartForwarder(ctx, func(ev domain.OperationEvent) {
				fmt.Fprintf(out, "%s %s %s %s -> %s\n", ev.OccurredAt.Format(time.RFC3339), ev.Action, ev.ExternalID, ev.From, ev.To)
			}); err != nil {
				return err
			}
			log.Info("Listening for operation events", "channel", cfg.RedisChannel)
			<-ctx.Done()
			return nil
		},
	}
}
