package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seatlog/seatlog/internal/export"
	"github.com/seatlog/seatlog/internal/handler"
	"github.com/seatlog/seatlog/internal/repo"
	"github.com/seatlog/seatlog/internal/settings"
	"github.com/seatlog/seatlog/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seatlog",
		Short: "Classroom seating chart and behavior logger",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), lockCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `seatlog --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the seating chart server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "seatlog.db", "SQLite database path")
	f.Bool("prune-logs", true, "Delete logs older than the configured retention on startup")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export logged events as CSV or JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "seatlog.db", "SQLite database path")
	f.StringP("format", "f", "", "Output format (csv, json); defaults to the stored setting")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func lockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Manage the app-lock password",
	}

	var set = &cobra.Command{
		Use:   "set <password>",
		Short: "Set the app-lock password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(sr *settings.Repository) error {
				if err := sr.SetAppPassword(args[0]); err != nil {
					return err
				}
				slog.Info("app lock enabled")
				return nil
			})
		},
	}
	var check = &cobra.Command{
		Use:   "check <password>",
		Short: "Check a password against the stored app lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(sr *settings.Repository) error {
				ok, err := sr.CheckAppPassword(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("wrong password")
				}
				fmt.Println("ok")
				return nil
			})
		},
	}
	var remove = &cobra.Command{
		Use:   "remove",
		Short: "Remove the app-lock password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd, func(sr *settings.Repository) error {
				if err := sr.RemoveAppPassword(); err != nil {
					return err
				}
				slog.Info("app lock removed")
				return nil
			})
		},
	}

	cmd.PersistentFlags().String("db", "seatlog.db", "SQLite database path")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	cmd.AddCommand(set, check, remove)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SEATLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("seatlog")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/seatlog")
	v.AddConfigPath("/etc/seatlog")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	settingsRepo := settings.New(db)
	classroom := repo.New(db, settingsRepo)

	if v.GetBool("prune-logs") {
		if err := pruneLogs(db, settingsRepo); err != nil {
			return fmt.Errorf("prune logs: %w", err)
		}
	}

	h := handler.New(db, classroom, settingsRepo)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "db", v.GetString("db"))
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cs, err := settings.New(db).Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	opts := export.OptionsFromSettings(cs)
	if f := v.GetString("format"); f != "" {
		opts.Format = f
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Logs(w, db, opts); err != nil {
		return fmt.Errorf("export logs: %w", err)
	}
	return nil
}

// pruneLogs deletes logs older than the configured retention window.
func pruneLogs(db *store.Store, sr *settings.Repository) error {
	cs, err := sr.Get()
	if err != nil {
		return err
	}
	days := cs.General.LogRetentionDays
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	n, err := db.PruneLogs(cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("pruned old logs", "removed", n, "retention_days", days)
	}
	return nil
}

func withSettings(cmd *cobra.Command, fn func(*settings.Repository) error) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return fn(settings.New(db))
}
