package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytboxd/internal/repositories"
	"github.com/desertthunder/ytboxd/internal/services"
	"github.com/desertthunder/ytboxd/internal/shared"
	"github.com/desertthunder/ytboxd/internal/tasks"
	tu "github.com/desertthunder/ytboxd/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("withProgress", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		err := runner.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
			progress <- tasks.ProgressUpdate{Message: "step one"}
			progress <- tasks.ProgressUpdate{Message: "step two"}
			return nil
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "step one") || !strings.Contains(output.String(), "step two") {
			t.Errorf("expected progress messages in output, got %q", output.String())
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	t.Run("initializes database from config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		dbPath := filepath.Join(tmpDir, "lib.db")

		configText := fmt.Sprintf("[database]\npath = %q\nmax_open_conns = 5\nmax_idle_conns = 2\n", dbPath)
		if err := os.WriteFile(configPath, []byte(configText), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := &cli.Command{Name: "ytboxd", Commands: runner.register()}

		err := app.Run(context.Background(), []string{"ytboxd", "setup", "database", "--config", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, dbPath)

		db, err := shared.NewDatabase(dbPath)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("expected schema_migrations table: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one applied migration")
		}
	})

	t.Run("creates missing config from template", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		// The template's database path is relative, so run from the temp dir.
		cwd := tu.MustGetwd(t)
		tu.MustChdir(t, tmpDir)
		defer tu.MustChdir(t, cwd)

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		app := &cli.Command{Name: "ytboxd", Commands: runner.register()}

		err := app.Run(context.Background(), []string{"ytboxd", "setup", "database", "--config", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, configPath)
	})
}

func TestSaveAccount(t *testing.T) {
	setup := func(t *testing.T) (*Runner, *library) {
		t.Helper()

		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		lib := &library{
			db:        db,
			config:    shared.DefaultConfig(),
			users:     repositories.NewUserRepository(db),
			creds:     repositories.NewCredentialRepository(db),
			videos:    repositories.NewVideoRepository(db),
			playlists: repositories.NewPlaylistRepository(db),
			tags:      repositories.NewTagRepository(db),
			videoTags: repositories.NewVideoTagRepository(db),
		}

		return NewRunner(RunnerOpts{Output: &bytes.Buffer{}}), lib
	}

	t.Run("creates user and credential on first login", func(t *testing.T) {
		runner, lib := setup(t)

		info := &services.UserInfo{Email: "viewer@example.com", Name: "Viewer"}
		token := &oauth2.Token{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		}

		user, err := runner.saveAccount(lib, info, token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.Email() != "viewer@example.com" {
			t.Errorf("expected email to be stored, got %s", user.Email())
		}

		cred, err := lib.creds.GetByUserID(user.ID())
		if err != nil {
			t.Fatalf("expected stored credential, got %v", err)
		}
		if cred.AccessToken() != "access-token" {
			t.Errorf("expected access token to be stored, got %s", cred.AccessToken())
		}
		if cred.RefreshToken() != "refresh-token" {
			t.Errorf("expected refresh token to be stored, got %s", cred.RefreshToken())
		}
	})

	t.Run("reuses the user row on repeat login", func(t *testing.T) {
		runner, lib := setup(t)

		info := &services.UserInfo{Email: "viewer@example.com", Name: "Viewer"}
		token := &oauth2.Token{AccessToken: "first", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}

		first, err := runner.saveAccount(lib, info, token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		info.Name = "Renamed Viewer"
		token = &oauth2.Token{AccessToken: "second", RefreshToken: "r2", Expiry: time.Now().Add(time.Hour)}

		second, err := runner.saveAccount(lib, info, token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if second.ID() != first.ID() {
			t.Error("expected the same user row on repeat login")
		}

		users, err := lib.users.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("expected one user, got %d", len(users))
		}

		cred, err := lib.creds.GetByUserID(first.ID())
		if err != nil {
			t.Fatalf("expected stored credential, got %v", err)
		}
		if cred.AccessToken() != "second" {
			t.Errorf("expected refreshed access token, got %s", cred.AccessToken())
		}
	})

	t.Run("defaults a missing expiry to one hour", func(t *testing.T) {
		runner, lib := setup(t)

		info := &services.UserInfo{Email: "viewer@example.com", Name: "Viewer"}
		token := &oauth2.Token{AccessToken: "access-token", RefreshToken: "refresh-token"}

		user, err := runner.saveAccount(lib, info, token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		cred, err := lib.creds.GetByUserID(user.ID())
		if err != nil {
			t.Fatalf("expected stored credential, got %v", err)
		}

		until := time.Until(cred.ExpiresAt())
		if until < 55*time.Minute || until > 65*time.Minute {
			t.Errorf("expected roughly one hour of lifetime, got %v", until)
		}
	})
}
