// ABOUTME: Entry point for the genia development backend
// ABOUTME: Serves chat, upload, todos, and events over HTTP backed by SQLite

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/genia/internal/auth"
	"github.com/2389/genia/internal/config"
	"github.com/2389/genia/internal/devserver"
	"github.com/2389/genia/internal/logging"
	"github.com/2389/genia/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
                    _
   __ _  ___ _ __  (_) __ _
  / _' |/ _ \ '_ \ | |/ _' |
 | (_| |  __/ | | || | (_| |
  \__, |\___|_| |_||_|\__,_|   devserver
  |___/
`

// defaultTokenTTL is how long issued tokens stay valid.
const defaultTokenTTL = 30 * 24 * time.Hour

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: genia-devserver <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                  Start the development server")
		fmt.Println("  token --owner ID       Issue a bearer token and save it for the client")
		fmt.Println("  health                 Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "token":
		err = runToken(os.Args[2:])
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the devserver config, falling back to defaults when the
// file does not exist.
func loadConfig() (*config.DevServerConfig, string, error) {
	path := config.DevServerPath()
	cfg, err := config.LoadDevServer(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.DefaultDevServer(), "(defaults)", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.Addr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	opts := devserver.Options{
		Store:      st,
		UploadsDir: cfg.Uploads.Dir,
		Logger:     logger,
	}

	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.Auth.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("creating JWT verifier: %w", err)
		}
		opts.Verifier = verifier
		fmt.Println("bearer tokens")
	} else {
		yellow.Println("disabled")
	}

	green.Print("    ▶ ")
	fmt.Printf("Answers:   ")
	if cfg.Gemini.APIKey != "" {
		answerer, err := devserver.NewGeminiAnswerer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return err
		}
		opts.Answerer = answerer
		cyan.Println(cfg.Gemini.Model)
	} else {
		fmt.Println("extractive")
	}
	fmt.Println()

	srv, err := devserver.New(opts)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer srv.Close()

	logger.Info("starting genia-devserver",
		"config", configPath,
		"addr", cfg.Server.Addr,
		"auth", opts.Verifier != nil,
	)

	return srv.Run(ctx, cfg.Server.Addr)
}

// runToken issues a bearer token for an owner and saves it where the client
// looks for it.
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	owner := fs.String("owner", config.DefaultOwnerID, "Owner id the token is issued to")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token lifetime")
	printOnly := fs.Bool("print", false, "Print the token instead of saving it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured in %s", configPath)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating JWT verifier: %w", err)
	}
	token, err := verifier.Generate(*owner, *ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	if *printOnly {
		fmt.Println(token)
		return nil
	}

	tokenPath := config.TokenPath()
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(tokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Saved token for owner %s: %s\n", *owner, tokenPath)
	fmt.Printf("    Expires: %s\n", time.Now().Add(*ttl).UTC().Format(time.RFC3339))
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.Addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
