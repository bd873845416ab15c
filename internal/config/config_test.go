package config

import (
	"os"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret-key")
	os.Setenv("VERIFY_ENDPOINT", "https://verify.example.com/check")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("VERIFY_ENDPOINT")
	})
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	// Clear any other env vars that might interfere
	envVars := []string{"SERVER_ADDR", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "VERIFY_TIMEOUT", "ASSIGNMENT_WINDOW", "MAX_ATTEMPTS", "SWEEP_INTERVAL"}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Check defaults
	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, want %q", cfg.DBHost, "localhost")
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, want %q", cfg.DBSSLMode, "disable")
	}
	if cfg.VerifyTimeout != 3*time.Second {
		t.Errorf("VerifyTimeout = %v, want %v", cfg.VerifyTimeout, 3*time.Second)
	}
	if cfg.AssignmentWindow != 24*time.Hour {
		t.Errorf("AssignmentWindow = %v, want %v", cfg.AssignmentWindow, 24*time.Hour)
	}
	if cfg.MaxAttempts != 10 {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, 10)
	}
	if cfg.SweepInterval != 0 {
		t.Errorf("SweepInterval = %v, want 0", cfg.SweepInterval)
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "missing JWT_SECRET", unset: "JWT_SECRET"},
		{name: "missing VERIFY_ENDPOINT", unset: "VERIFY_ENDPOINT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			os.Unsetenv(tt.unset)

			if _, err := Load(); err == nil {
				t.Errorf("Load should fail when %s is not set", tt.unset)
			}
		})
	}
}

func TestLoad_InvalidBounds(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero max attempts", key: "MAX_ATTEMPTS", value: "0"},
		{name: "negative window", key: "ASSIGNMENT_WINDOW", value: "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			os.Setenv(tt.key, tt.value)
			defer os.Unsetenv(tt.key)

			if _, err := Load(); err == nil {
				t.Errorf("Load should reject %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DB_HOST", "db.example.com")
	os.Setenv("VERIFY_TIMEOUT", "5s")
	os.Setenv("MAX_ATTEMPTS", "3")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("VERIFY_TIMEOUT")
		os.Unsetenv("MAX_ATTEMPTS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 9090)
	}
	if cfg.DBHost != "db.example.com" {
		t.Errorf("DBHost = %q, want %q", cfg.DBHost, "db.example.com")
	}
	if cfg.VerifyTimeout != 5*time.Second {
		t.Errorf("VerifyTimeout = %v, want %v", cfg.VerifyTimeout, 5*time.Second)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, 3)
	}
}
