package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskboard/internal/auth"
	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/server"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("TASKBOARD_CONFIG", "/etc/taskboard.yaml")
		assert.Equal(t, "/etc/taskboard.yaml", getConfigPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("TASKBOARD_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		assert.Equal(t, filepath.Join("/tmp/xdg", "taskboard", "config.yaml"), getConfigPath())
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("TASKBOARD_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/home/someone")
		assert.Equal(t, filepath.Join("/home/someone", ".config", "taskboard", "config.yaml"), getConfigPath())
	})
}

func TestParseBootstrapArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    bootstrapArgs
		wantErr string
	}{
		{
			name: "separate values",
			args: []string{"--name", "Alice", "--email", "alice@example.com", "--password", "secret1"},
			want: bootstrapArgs{name: "Alice", email: "alice@example.com", password: "secret1"},
		},
		{
			name: "equals form",
			args: []string{"--name= Alice ", "--email=alice@example.com", "--password=secret1"},
			want: bootstrapArgs{name: "Alice", email: "alice@example.com", password: "secret1"},
		},
		{
			name:    "missing name",
			args:    []string{"--email", "alice@example.com", "--password", "secret1"},
			wantErr: "--name",
		},
		{
			name:    "missing value",
			args:    []string{"--name"},
			wantErr: "requires a value",
		},
		{
			name:    "unknown flag",
			args:    []string{"--role", "owner"},
			wantErr: "unknown flag",
		},
		{
			name:    "positional argument",
			args:    []string{"alice"},
			wantErr: "unexpected argument",
		},
		{
			name:    "bad email",
			args:    []string{"--name", "Alice", "--email", "alice", "--password", "secret1"},
			wantErr: "not an email",
		},
		{
			name:    "email without a dot in the domain",
			args:    []string{"--name", "Admin", "--email", "admin@localhost", "--password", "secret1"},
			wantErr: "not an email",
		},
		{
			name:    "email with surrounding spaces",
			args:    []string{"--name", "Alice", "--email", " alice@example.com", "--password", "secret1"},
			wantErr: "not an email",
		},
		{
			name:    "short password",
			args:    []string{"--name", "Alice", "--email", "alice@example.com", "--password", "abc"},
			wantErr: "at least",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBootstrapArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderConfig_Loads(t *testing.T) {
	t.Setenv(config.EnvJWTSecret, "")
	t.Setenv(config.EnvDataPath, "")

	secret, err := generateSecret()
	require.NoError(t, err)

	content := renderConfig(configValues{
		httpAddr:  "127.0.0.1:4000",
		driver:    config.DriverSQLite,
		dataPath:  "/var/lib/taskboard/data.db",
		secret:    secret,
		logLevel:  "debug",
		logFormat: "json",
	})

	cfg, err := config.Parse([]byte(content), false)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.HTTPAddr)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/taskboard/data.db", cfg.Storage.Path)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestCreateFirstUser(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data.json")
	cfg.Auth.JWTSecret = "bootstrap-tests-secret-32-bytes!"
	cfg.Auth.BcryptCost = 4

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ba := bootstrapArgs{name: "Alice", email: "alice@example.com", password: "secret1"}

	userID, token, err := createFirstUser(context.Background(), cfg, ba, logger)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	require.NoError(t, err)
	gotID, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)

	var out bytes.Buffer
	require.NoError(t, checkDocument(cfg.Storage.Path, &out))
	assert.Contains(t, out.String(), "1 users")

	_, _, err = createFirstUser(context.Background(), cfg, ba, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already complete")
}

func TestCreateFirstUser_CanLogIn(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data.json")
	cfg.Auth.JWTSecret = "bootstrap-tests-secret-32-bytes!"
	cfg.Auth.BcryptCost = 4

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ba, err := parseBootstrapArgs([]string{"--name", "Admin", "--email", "admin@example.com", "--password", "secret1"})
	require.NoError(t, err)

	userID, _, err := createFirstUser(context.Background(), cfg, ba, logger)
	require.NoError(t, err)

	srv, err := server.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	body := `{"email":"admin@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp.User.ID)
}

func TestCheckDocument_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users": "nope", "boards": [], "tasks": []}`), 0o600))

	err := checkDocument(path, &bytes.Buffer{})
	assert.Error(t, err)

	err = checkDocument(filepath.Join(t.TempDir(), "missing.json"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunInit_WritesLoadableConfig(t *testing.T) {
	t.Setenv(config.EnvJWTSecret, "")
	t.Setenv(config.EnvDataPath, "")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "conf", "config.yaml")
	dataPath := filepath.Join(dir, "data", "data.json")

	answers := strings.Join([]string{
		configPath,
		"127.0.0.1:3999",
		"",
		dataPath,
		"warn",
		"",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader(answers), &out))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3999", cfg.Server.HTTPAddr)
	assert.Equal(t, config.DriverFile, cfg.Storage.Driver)
	assert.Equal(t, dataPath, cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.GreaterOrEqual(t, len(cfg.Auth.JWTSecret), auth.MinSecretLength)

	_, err = os.Stat(filepath.Dir(dataPath))
	assert.NoError(t, err)
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	logger.Debug("hidden")
	logger.With("component", "api").WithGroup("req").Info("handled", "status", 201)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "handled")
	assert.Contains(t, out, "component=")
	assert.Contains(t, out, "req.status=")
	assert.Contains(t, out, "201")
}
