// ABOUTME: Entry point for the taskboard server and its setup commands
// ABOUTME: Dispatches serve, init, bootstrap, check and health subcommands

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/server"
	"github.com/2389/taskboard/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
  _            _    _                         _
 | |_ __ _ ___| | _| |__   ___   __ _ _ __ __| |
 | __/ _' / __| |/ / '_ \ / _ \ / _' | '__/ _' |
 | || (_| \__ \   <| |_) | (_) | (_| | | | (_| |
  \__\__,_|___/_|\_\_.__/ \___/ \__,_|_|  \__,_|
`

// getConfigPath returns the path to the config file.
// Priority: TASKBOARD_CONFIG env var > XDG_CONFIG_HOME/taskboard/config.yaml > ~/.config/taskboard/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TASKBOARD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "taskboard", "config.yaml")
}

// getDataPath returns the directory bootstrap and init place data files in.
// Priority: XDG_DATA_HOME/taskboard > ~/.local/share/taskboard
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "taskboard")
}

// loadConfig reads the config file, or builds one from defaults and the
// environment when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg, err := config.Parse(nil, false)
		if err != nil {
			return nil, fmt.Errorf("no config at %s and environment incomplete: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func usage() {
	fmt.Println("Usage: taskboard <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                                  Start the API server")
	fmt.Println("  init                                   Create a new config file interactively")
	fmt.Println("  bootstrap --name N --email E --password P")
	fmt.Println("                                         Create config if missing and the first user")
	fmt.Println("  check [path]                           Validate a data file")
	fmt.Println("  health                                 Check server health")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(os.Stdin, os.Stdout)
	case "bootstrap":
		err = runBootstrap(ctx, os.Args[2:], os.Stdout)
	case "check":
		err = runCheck(os.Args[2:], os.Stdout)
	case "health":
		err = runHealth(ctx)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Storage:   %s (%s)", cfg.Storage.Path, cfg.Storage.Driver)
	if cfg.Storage.Ephemeral {
		gray.Print(" (ephemeral)")
	}
	fmt.Println()
	if cfg.Storage.MirrorPath != "" {
		green.Print("    ▶ ")
		fmt.Printf("Mirror:    %s\n", cfg.Storage.MirrorPath)
	}
	if cfg.Debug.Enabled {
		yellow.Println("    ! debug endpoint enabled")
	}
	fmt.Println()

	logger.Info("starting taskboard",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Storage.Driver,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
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

// runCheck validates a data file against the document schema. With no
// argument it checks the configured storage path.
func runCheck(args []string, out io.Writer) error {
	var path string
	switch len(args) {
	case 0:
		cfg, err := loadConfig(getConfigPath())
		if err != nil {
			return err
		}
		if cfg.Storage.Driver != config.DriverFile {
			return fmt.Errorf("check needs a JSON data file, storage driver is %q", cfg.Storage.Driver)
		}
		path = cfg.Storage.Path
	case 1:
		path = args[0]
	default:
		return fmt.Errorf("usage: taskboard check [path]")
	}

	return checkDocument(path, out)
}

func checkDocument(path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading data file: %w", err)
	}

	if err := store.ValidateDocument(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: decoding document: %w", path, err)
	}

	fmt.Fprintf(out, "%s: ok (%d users, %d boards, %d tasks)\n", path, len(doc.Users), len(doc.Boards), len(doc.Tasks))
	return nil
}
