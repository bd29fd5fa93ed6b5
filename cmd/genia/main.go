// ABOUTME: Terminal chat client for the genia document assistant
// ABOUTME: Wires config, API client, and session components, then runs the REPL

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/genia/internal/answer"
	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/config"
	"github.com/2389/genia/internal/events"
	"github.com/2389/genia/internal/ingest"
	"github.com/2389/genia/internal/logging"
	"github.com/2389/genia/internal/session"
	"github.com/2389/genia/internal/tasks"
	"github.com/2389/genia/internal/transcript"
)

// Version is set at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Client config file")
	server := flag.String("server", "", "Backend URL (overrides config)")
	owner := flag.String("owner", "", "Task list owner id (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("genia", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *server, *owner); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, server, owner string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if server != "" {
		cfg.Server.URL = server
	}
	if owner != "" {
		cfg.OwnerID = owner
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Logs go to stderr so they never interleave with answers on stdout.
	logger := logging.Setup(cfg.Logging, os.Stderr)

	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := newPrinter(os.Stdout)
	out.header(cfg.Server.URL, cfg.Token != "")

	r := newREPL(sess, out, os.Stdin)
	if err := sess.Start(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
		// The task list is optional; the conversation still works without it.
		out.notice(color.YellowString("Could not load tasks: %v", err))
	}

	err = r.Run(ctx)
	out.println("\nGoodbye!")
	return err
}

// newSession assembles one session over a single API client.
func newSession(cfg *config.Config, logger *slog.Logger) (*session.Session, error) {
	client, err := api.New(api.Options{
		BaseURL:       cfg.Server.URL,
		Token:         cfg.Token,
		AnswerTimeout: cfg.Timeouts.Answer,
		UploadTimeout: cfg.Timeouts.Upload,
		TasksTimeout:  cfg.Timeouts.Answer,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	return session.New(session.Deps{
		Store:   transcript.NewStore(),
		Answers: answer.NewPipeline(client, logger),
		Ingest:  ingest.NewCoordinator(client, logger),
		Tasks:   tasks.NewSynchronizer(client, cfg.OwnerID, logger),
		Events:  events.NewSubscriber(client, logger),
		Logger:  logger,
	}), nil
}
