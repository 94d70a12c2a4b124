package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "petalworks-dev",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "petalworks-dev" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "petalworks-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Orders.DefaultListLimit != 100 {
		t.Errorf("unexpected default list limit: %d", cfg.Orders.DefaultListLimit)
	}
	if cfg.Orders.MaxListLimit != 500 {
		t.Errorf("unexpected max list limit: %d", cfg.Orders.MaxListLimit)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":               "9090",
		"API_SERVER_READ_TIMEOUT":       "20s",
		"API_SERVER_WRITE_TIMEOUT":      "25s",
		"API_SERVER_IDLE_TIMEOUT":       "2m",
		"API_FIRESTORE_PROJECT_ID":      "petalworks-prod",
		"API_FIRESTORE_EMULATOR_HOST":   "localhost:8200",
		"API_PUBSUB_PROJECT_ID":         "petalworks-events",
		"API_PUBSUB_ORDER_TOPIC":        "order-events",
		"API_LOG_LEVEL":                 "DEBUG",
		"API_LOG_DEVELOPMENT":           "true",
		"API_ORDERS_DEFAULT_LIST_LIMIT": "50",
		"API_ORDERS_MAX_LIST_LIMIT":     "250",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Errorf("unexpected emulator host: %s", cfg.Firestore.EmulatorHost)
	}
	if cfg.PubSub.ProjectID != "petalworks-events" {
		t.Errorf("unexpected pubsub project: %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.OrderTopicID != "order-events" {
		t.Errorf("unexpected order topic: %s", cfg.PubSub.OrderTopicID)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected lowered log level, got %s", cfg.Logging.Level)
	}
	if !cfg.Logging.Development {
		t.Errorf("expected development logging enabled")
	}
	if cfg.Orders.DefaultListLimit != 50 || cfg.Orders.MaxListLimit != 250 {
		t.Errorf("unexpected order limits: %+v", cfg.Orders)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	contents := "# local overrides\nexport API_SERVER_PORT=7070\nAPI_FIRESTORE_PROJECT_ID=\"petalworks-local\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected dotenv port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "petalworks-local" {
		t.Errorf("expected quoted value trimmed, got %s", cfg.Firestore.ProjectID)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := Load(WithEnvMap(map[string]string{
		"API_ORDERS_DEFAULT_LIST_LIMIT": "1000",
		"API_ORDERS_MAX_LIST_LIMIT":     "500",
	}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validation.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected two invalid fields, got %v", fields)
	}
}
