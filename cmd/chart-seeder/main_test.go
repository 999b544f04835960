package main

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ehr/chartseed/internal/config"
	"github.com/ehr/chartseed/internal/platform/auth"
	"github.com/ehr/chartseed/internal/platform/memstore"
	"github.com/ehr/chartseed/internal/platform/sandbox"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(&config.Config{Env: "production", LogLevel: tt.level}, &bytes.Buffer{})
			if got := logger.GetLevel(); got != tt.want {
				t.Errorf("newLogger(%q) level = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNewLogger_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{Env: "production", LogLevel: "info"}, &buf)
	logger.Info().Msg("hello")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q", buf.String())
	}
	if line["message"] != "hello" {
		t.Errorf("unexpected message: %v", line["message"])
	}
}

func TestResolveCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("diagnoses:\n  - Migraine\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := resolveCatalog("", "")
	if err != nil {
		t.Fatalf("resolveCatalog() error: %v", err)
	}
	if len(c.Diagnoses) != len(sandbox.DefaultCatalog().Diagnoses) {
		t.Errorf("expected default catalog")
	}

	c, err = resolveCatalog("", path)
	if err != nil {
		t.Fatalf("resolveCatalog(env) error: %v", err)
	}
	if len(c.Diagnoses) != 1 || c.Diagnoses[0] != "Migraine" {
		t.Errorf("expected env catalog, got %v", c.Diagnoses)
	}

	if _, err := resolveCatalog(filepath.Join(dir, "missing.yaml"), path); err == nil {
		t.Error("expected the flag path to win and fail")
	}
}

func TestMigrationsFS_Embedded(t *testing.T) {
	matches, err := fs.Glob(migrationsFS(""), "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected embedded migrations")
	}
}

func TestNewServer_Routes(t *testing.T) {
	e, err := newServer(&config.Config{Env: "development"}, sandbox.NewMemoryRepositories(memstore.New()), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("newServer() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sandbox/catalog", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /sandbox/catalog = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/sandbox/seed", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /sandbox/seed = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No physician-specialty pairings") {
		t.Errorf("expected no-pairings warning, got %s", rec.Body.String())
	}
}

func TestSeedCmd_DryRun(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "error")
	out := filepath.Join(t.TempDir(), "consents.ndjson")

	cmd := seedCmd()
	var progress bytes.Buffer
	cmd.SetOut(&progress)
	cmd.SetErr(&progress)
	cmd.SetArgs([]string{"--dry-run", "--patients", "2", "--physicians", "1", "--seed", "9", "--out", out, "--kind", "consent"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("seed --dry-run error: %v", err)
	}
	if !strings.Contains(progress.String(), "Summary of created records:") {
		t.Errorf("expected summary in progress output, got %q", progress.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 4 || len(lines) > 8 {
		t.Errorf("expected 4..8 consents for 2 patients, got %d", len(lines))
	}
}

func TestNewServer_RequiresSecretOutsideDevelopment(t *testing.T) {
	_, err := newServer(&config.Config{Env: "production"}, sandbox.NewMemoryRepositories(memstore.New()), nil, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}
}

func TestNewServer_BearerTokenOutsideDevelopment(t *testing.T) {
	cfg := &config.Config{Env: "production", JWTSecret: "sandbox-secret"}
	e, err := newServer(cfg, sandbox.NewMemoryRepositories(memstore.New()), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("newServer() error: %v", err)
	}

	for _, path := range []string{"/sandbox/seed", "/sandbox/bootstrap"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("POST %s without token = %d, want 401", path, rec.Code)
		}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ci",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/sandbox/seed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /sandbox/seed with token = %d, want 200", rec.Code)
	}
}

func TestSeedCmd_DryRun_UnknownKind(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "error")

	cmd := seedCmd()
	var progress bytes.Buffer
	cmd.SetOut(&progress)
	cmd.SetErr(&progress)
	cmd.SetArgs([]string{"--dry-run", "--patients", "1", "--kind", "invoice"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if strings.Contains(progress.String(), "Creating clinical history") {
		t.Errorf("expected no seeding before the kind check, got %q", progress.String())
	}
}

func TestSeedCmd_DryRun_UnwritableOut(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "error")

	cmd := seedCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dry-run", "--patients", "1", "--out", filepath.Join(t.TempDir(), "missing", "rows.ndjson")})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for an unwritable --out path")
	}
}
