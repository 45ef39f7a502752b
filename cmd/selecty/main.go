package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ee1922/selecty/internal/booking"
	"github.com/ee1922/selecty/internal/capture"
	"github.com/ee1922/selecty/internal/channel"
	"github.com/ee1922/selecty/internal/config"
	"github.com/ee1922/selecty/internal/directory"
	"github.com/ee1922/selecty/internal/domain"
	"github.com/ee1922/selecty/internal/notify"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "selecty",
		Short:   "selecty: stylist consultation chat",
		Long:    "Selecty lets you browse salon stylists, chat with one, attach photos, and request a booking.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.selecty/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(stylistsCmd())
	root.AddCommand(bookingsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// No config yet: run on defaults so the demo works out of the box.
			return config.Defaults(), nil
		}
	}
	return config.Load(path)
}

func setupLogger(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.Save(path, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", path)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the stylist picker and start a consultation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			setupLogger(cfg.General.LogLevel)

			dir, err := directory.Load(cfg.General.RosterPath, logger)
			if err != nil {
				return err
			}

			store, err := booking.NewSQLiteStore(cfg.Booking.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var notifier channel.BookingNotifier
			if cfg.Booking.Telegram.Enabled {
				tn, err := notify.NewTelegramNotifier(notify.TelegramConfig{
					Token:  cfg.Booking.Telegram.Token,
					ChatID: cfg.Booking.Telegram.ChatID,
					Logger: logger,
				})
				if err != nil {
					// Notification is best-effort; the chat still runs.
					logger.Warn("telegram notifier unavailable", "err", err)
				} else {
					notifier = tn
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cli := channel.NewCLI(channel.CLIConfig{
				Directory:   dir,
				Bookings:    store,
				Notifier:    notifier,
				Device:      captureDevice(cfg),
				FrameWidth:  cfg.Camera.Width,
				FrameHeight: cfg.Camera.Height,
				ReplyDelay:  time.Duration(cfg.Chat.ReplyDelayMs) * time.Millisecond,
				ReplyText:   cfg.Chat.ReplyText,
				Logger:      logger,
			})
			return cli.Run(ctx)
		},
	}
}

func stylistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stylists",
		Short: "List the stylist roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := directory.Load(cfg.General.RosterPath, logger)
			if err != nil {
				return err
			}
			for _, s := range dir.All() {
				state := "受付停止中"
				if s.Available {
					state = "受付中"
				}
				fmt.Printf("%-10s %s (%s) - %s\n", s.ID, s.Name, s.Title, state)
			}
			return nil
		},
	}
}

func bookingsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List stored booking requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := booking.NewSQLiteStore(cfg.Booking.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			reqs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				fmt.Println("予約リクエストはありません。")
				return nil
			}
			for _, r := range reqs {
				fmt.Printf("%s  %s → %s  %s  %s\n",
					r.CreatedAt.Format("2006-01-02 15:04"),
					r.CustomerName,
					r.StylistName,
					r.RequestedAt.Format("2006-01-02 15:04"),
					r.Note,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max bookings to show")
	return cmd
}

func captureDevice(cfg *config.Config) domain.CaptureDevice {
	if cfg.Camera.Device == "testpattern" {
		return &capture.TestPattern{Width: cfg.Camera.Width, Height: cfg.Camera.Height}
	}
	return &capture.BrowserDevice{
		FakeDevice: cfg.Camera.FakeDevice,
		Logger:     logger,
	}
}
