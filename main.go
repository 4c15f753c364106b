package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openclaw/qrcards/api"
	"github.com/openclaw/qrcards/card"
	"github.com/openclaw/qrcards/config"
	"github.com/openclaw/qrcards/console"
	"github.com/openclaw/qrcards/notify"
	"github.com/openclaw/qrcards/roster"
	"github.com/openclaw/qrcards/store"
)

var version = "v0.1.0"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	var configPath string
	root := &cobra.Command{
		Use:          "qrcards",
		Short:        "Generate student QR cards for classroom assignment scanning",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")

	// --- generate command ----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "generate [studentId] [assignmentId]",
		Short: "Generate one card; omit assignmentId for an identity card",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignmentID := ""
			if len(args) == 2 {
				assignmentID = args[1]
			}
			return runGenerate(configPath, args[0], assignmentID)
		},
	})

	// --- batch command -------------------------------------------------------
	var rosterPath string
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate identity cards for a roster (demo students by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(configPath, rosterPath)
		},
	}
	batchCmd.Flags().StringVar(&rosterPath, "roster", "", "Path to an .xlsx roster (column A: student ID, column B: name)")
	root.AddCommand(batchCmd)

	// --- serve command -------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve card generation over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	})

	// --- history command -----------------------------------------------------
	var historyStudent string
	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(configPath, historyStudent, historyLimit)
		},
	}
	historyCmd.Flags().StringVar(&historyStudent, "student", "", "Only show cards for this student ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of cards to show")
	root.AddCommand(historyCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrcards %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the components every command needs.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	gen   *card.Generator
	store *store.CardStore
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close history store", "error", err)
		}
	}
}

// setup loads config and wires the generator, history store and webhook.
func setup(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	opts, err := cfg.CardOptions()
	if err != nil {
		return nil, fmt.Errorf("card options: %w", err)
	}

	gen := card.NewGenerator(cfg.OutputDir, os.Stdout, log)
	gen.Options = opts

	a := &app{cfg: cfg, log: log, gen: gen}

	if cfg.History {
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
		st, err := store.NewCardStore(cfg.HistoryPath())
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.store = st
		gen.Recorder = st
	}

	if cfg.WebhookURL != "" {
		gen.Notifier = notify.NewWebhookSender(cfg.WebhookURL, log)
	}

	return a, nil
}

func (a *app) students(rosterPath string) ([]card.Student, error) {
	if rosterPath == "" {
		rosterPath = a.cfg.Roster
	}
	if rosterPath == "" {
		return card.DemoStudents, nil
	}
	students, err := roster.LoadFile(rosterPath, a.log)
	if err != nil {
		return nil, err
	}
	a.log.Info("roster loaded", "path", rosterPath, "students", len(students))
	return students, nil
}

// runMenu is the interactive entrypoint used when no subcommand is given.
func runMenu(configPath string) error {
	a, err := setup(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	students, err := a.students("")
	if err != nil {
		return err
	}
	return console.Run(os.Stdin, os.Stdout, a.gen, students)
}

func runGenerate(configPath, studentID, assignmentID string) error {
	a, err := setup(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.gen.Generate(studentID, assignmentID)
	return err
}

func runBatch(configPath, rosterPath string) error {
	a, err := setup(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	students, err := a.students(rosterPath)
	if err != nil {
		return err
	}
	results, err := a.gen.Batch(students)
	if err != nil {
		return err
	}
	fmt.Printf("Done: %d cards written to %s\n", len(results), a.cfg.OutputDir)
	return nil
}

func runHistory(configPath, studentID string, limit int) error {
	a, err := setup(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store == nil {
		return errors.New("history is disabled in config")
	}

	var cards []store.CardRecord
	if studentID != "" {
		cards, err = a.store.CardsForStudent(studentID, limit)
	} else {
		cards, err = a.store.ListCards(limit, 0)
	}
	if err != nil {
		return err
	}

	for _, c := range cards {
		fmt.Printf("%s  %-10s  %-40s  %s\n",
			time.Unix(c.CreatedAt, 0).Format(time.DateTime), c.Kind, c.Payload, c.Path)
	}
	return nil
}

// runServe starts the HTTP API and blocks until SIGINT/SIGTERM.
func runServe(configPath string) error {
	a, err := setup(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", a.cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Gen:       a.gen,
			Store:     a.store,
			Log:       a.log,
			Version:   version,
			StartTime: time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", "addr", srv.Addr, "output_dir", a.cfg.OutputDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	a.log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP server shutdown error", "error", err)
	}
	a.log.Info("goodbye")
	return nil
}
