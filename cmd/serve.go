package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brk3/habitbot/internal/bot"
	"github.com/brk3/habitbot/internal/config"
	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/reminder"
	"github.com/brk3/habitbot/internal/server"
	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/internal/storage/bolt"
	"github.com/brk3/habitbot/internal/storage/sqlite"
	"github.com/brk3/habitbot/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the reminder scheduler and the HTTP API",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.BotToken == "" {
			return errors.New("bot token is not set: use HABITS_BOT_TOKEN, BOT_TOKEN or bot_token in config.yaml")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func openStore(loc *time.Location) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBolt:
		st, err := bolt.Open(cfg.Storage.Path, loc)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := sqlite.Open(cfg.Storage.Path, loc)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func serve(ctx context.Context) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := openStore(loc)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	logger.Info("Opened store", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	client, err := telegram.New(cfg.BotToken, cfg.Debug)
	if err != nil {
		return err
	}

	reminders := reminder.New(store, client, loc)
	if err := reminders.Load(ctx); err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	reminders.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		reminders.Stop(stopCtx)
		logger.Info("Reminder scheduler stopped")
	}()

	b := bot.New(bot.Options{
		Store:     store,
		Messenger: client,
		Reminders: reminders,
		Location:  loc,
	})

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var srv *http.Server
	if cfg.ListenAddr != "" {
		srv = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           server.New(store, loc).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Starting HTTP server", "addr", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cancel(fmt.Errorf("http server: %w", err))
			}
		}()
	}

	runErr := client.Run(ctx, cfg.PollTimeout, b.Handle)

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	logger.Info("Shut down")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
