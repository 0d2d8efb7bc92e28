package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProvideEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "")
		t.Setenv("PUBLIC_URL", "")
		t.Setenv("ADMIN_PASSWORD", "")
		t.Setenv("ADMIN_TOKEN_SECRET", "")

		env, err := ProvideEnv()
		if err != nil {
			t.Fatalf("ProvideEnv returned error: %v", err)
		}
		if env.ServerPort != "8080" || env.PublicURL != "" || env.AdminPassword != "" || env.AdminTokenSecret != "quickqueue-secret" {
			t.Fatalf("unexpected defaults %+v", env)
		}
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("PUBLIC_URL", "https://queue.example.com")
		t.Setenv("ADMIN_PASSWORD", "hunter2")
		t.Setenv("ADMIN_TOKEN_SECRET", "s3cret")

		env, err := ProvideEnv()
		if err != nil {
			t.Fatalf("ProvideEnv returned error: %v", err)
		}
		want := Env{
			ServerPort:       "9000",
			PublicURL:        "https://queue.example.com",
			AdminPassword:    "hunter2",
			AdminTokenSecret: "s3cret",
		}
		if *env != want {
			t.Fatalf("expected %+v, got %+v", want, *env)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "eighty")

		if _, err := ProvideEnv(); err == nil {
			t.Fatalf("expected an error for a non numeric port")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		chdir(t, t.TempDir())

		if err := LoadDotEnv(); err != nil {
			t.Fatalf("expected a missing .env to be ignored, got %v", err)
		}
	})

	t.Run("loads values", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QUICKQUEUE_DOTENV_TEST=loaded\n"), 0o600); err != nil {
			t.Fatalf("cannot write .env: %v", err)
		}
		chdir(t, dir)
		os.Unsetenv("QUICKQUEUE_DOTENV_TEST")
		t.Cleanup(func() { os.Unsetenv("QUICKQUEUE_DOTENV_TEST") })

		if err := LoadDotEnv(); err != nil {
			t.Fatalf("LoadDotEnv returned error: %v", err)
		}
		if got := os.Getenv("QUICKQUEUE_DOTENV_TEST"); got != "loaded" {
			t.Fatalf("expected loaded, got %q", got)
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, ".env"), 0o700); err != nil {
			t.Fatalf("cannot create .env dir: %v", err)
		}
		chdir(t, dir)

		if err := LoadDotEnv(); err == nil {
			t.Fatalf("expected an error when .env cannot be read")
		}
	})
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("cannot change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(previous); err != nil {
			t.Fatalf("cannot restore working directory: %v", err)
		}
	})
}
