// ABOUTME: bootstrap and init subcommands: first-run config and the first user account
// ABOUTME: Generates a random JWT secret and writes a YAML config the server can load

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/taskboard/internal/api"
	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/repository"
	"github.com/2389/taskboard/internal/server"
)

type bootstrapArgs struct {
	name     string
	email    string
	password string
}

// parseBootstrapArgs accepts "--flag value" and "--flag=value" forms.
func parseBootstrapArgs(args []string) (bootstrapArgs, error) {
	var ba bootstrapArgs
	targets := map[string]*string{
		"--name":     &ba.name,
		"--email":    &ba.email,
		"--password": &ba.password,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return ba, fmt.Errorf("unexpected argument: %s", arg)
		}
		flag, value, hasValue := strings.Cut(arg, "=")
		dst, ok := targets[flag]
		if !ok {
			return ba, fmt.Errorf("unknown flag: %s", flag)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return ba, fmt.Errorf("%s requires a value", flag)
			}
			value = args[i+1]
			i++
		}
		*dst = value
	}

	// Emails are stored as given, the same as register does.
	ba.name = strings.TrimSpace(ba.name)

	switch {
	case ba.name == "":
		return ba, fmt.Errorf("--name flag is required")
	case ba.email == "":
		return ba, fmt.Errorf("--email flag is required")
	case !api.ValidEmail(ba.email):
		return ba, fmt.Errorf("--email %q is not an email address", ba.email)
	case utf8.RuneCountInString(ba.password) < api.MinPasswordLength:
		return ba, fmt.Errorf("--password must be at least %d characters", api.MinPasswordLength)
	case len(ba.password) > auth.MaxPasswordBytes:
		return ba, fmt.Errorf("--password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return ba, nil
}

// generateSecret returns a base64 encoded 32-byte random JWT secret.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

type configValues struct {
	httpAddr  string
	driver    string
	dataPath  string
	secret    string
	logLevel  string
	logFormat string
}

func renderConfig(v configValues) string {
	var b strings.Builder
	b.WriteString("# taskboard configuration\n\n")

	b.WriteString("server:\n")
	fmt.Fprintf(&b, "  http_addr: %q\n", v.httpAddr)
	b.WriteString("\n")

	b.WriteString("storage:\n")
	fmt.Fprintf(&b, "  driver: %q\n", v.driver)
	fmt.Fprintf(&b, "  path: %q\n", v.dataPath)
	b.WriteString("\n")

	b.WriteString("auth:\n")
	fmt.Fprintf(&b, "  jwt_secret: %q\n", v.secret)
	b.WriteString("  token_ttl: \"168h\"\n")
	b.WriteString("\n")

	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", v.logLevel)
	fmt.Fprintf(&b, "  format: %q\n", v.logFormat)

	return b.String()
}

func writeConfigFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// The file carries the JWT secret.
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// runBootstrap performs first-time setup:
// 1. Creates a config file with a random JWT secret (if missing)
// 2. Opens the configured storage and creates the first user
// 3. Prints a token for that user
func runBootstrap(ctx context.Context, args []string, out io.Writer) error {
	ba, err := parseBootstrapArgs(args)
	if err != nil {
		return err
	}

	configPath := getConfigPath()
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		content := renderConfig(configValues{
			httpAddr:  "127.0.0.1:3000",
			driver:    config.DriverFile,
			dataPath:  filepath.Join(getDataPath(), "data.json"),
			secret:    secret,
			logLevel:  "info",
			logFormat: "text",
		})
		if err := writeConfigFile(configPath, content); err != nil {
			return err
		}
		green.Fprintf(out, "  ✓ Created config: %s\n", configPath)
	} else {
		cyan.Fprintf(out, "  Using existing config: %s\n", configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	userID, token, err := createFirstUser(ctx, cfg, ba, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}

	green.Fprintf(out, "  ✓ Storage: %s\n", cfg.Storage.Path)
	green.Fprintf(out, "  ✓ Created user: %s <%s>\n", ba.name, ba.email)
	fmt.Fprintln(out)
	green.Fprintln(out, "  Bootstrap complete!")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  ID:     %s\n", userID)
	fmt.Fprintf(out, "  Token:  %s\n", token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Start the server with: taskboard serve")
	return nil
}

// createFirstUser registers the first account and returns its id and a token.
// It refuses to run once any user exists.
func createFirstUser(ctx context.Context, cfg *config.Config, ba bootstrapArgs, logger *slog.Logger) (string, string, error) {
	backend, err := server.OpenBackend(cfg, logger)
	if err != nil {
		return "", "", fmt.Errorf("opening storage: %w", err)
	}
	defer backend.Close()

	repo := repository.New(backend)

	stats, err := repo.Stats(ctx)
	if err != nil {
		return "", "", fmt.Errorf("reading storage: %w", err)
	}
	if stats.Users > 0 {
		return "", "", fmt.Errorf("bootstrap already complete: %d user(s) exist", stats.Users)
	}

	tokens, err := server.NewTokenService(cfg)
	if err != nil {
		return "", "", err
	}

	hash, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost).Hash(ba.password)
	if err != nil {
		return "", "", err
	}

	user, err := repo.CreateUser(ctx, repository.NewUser{
		ID:           uuid.New().String(),
		Email:        ba.email,
		PasswordHash: hash,
		Name:         ba.name,
	})
	if err != nil {
		return "", "", fmt.Errorf("creating user: %w", err)
	}

	token, err := tokens.Issue(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("generating token: %w", err)
	}
	return user.ID, token, nil
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "taskboard configuration setup")
	fmt.Fprintln(out, "=============================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	httpAddr := prompt(reader, out, "HTTP address", "127.0.0.1:3000")

	fmt.Fprintln(out, "\n--- Storage Configuration ---")
	driver := prompt(reader, out, "Storage driver (file/sqlite)", config.DriverFile)
	defaultData := filepath.Join(getDataPath(), "data.json")
	if driver == config.DriverSQLite {
		defaultData = filepath.Join(getDataPath(), "data.db")
	}
	dataPath := prompt(reader, out, "Data path", defaultData)

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	logLevel := prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, out, "Log format (text/json)", "text")

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	content := renderConfig(configValues{
		httpAddr:  httpAddr,
		driver:    driver,
		dataPath:  dataPath,
		secret:    secret,
		logLevel:  logLevel,
		logFormat: logFormat,
	})

	// Reject answers the server would refuse to start with.
	if _, err := config.Parse([]byte(content), false); err != nil {
		return err
	}

	if err := writeConfigFile(outputFile, content); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintf(out, "Data path: %s\n", dataPath)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  taskboard serve")
	return nil
}

func yes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
