package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set up test environment variables
	os.Setenv("botToken", "test-token")
	os.Setenv("PORT", "3001")
	os.Setenv("enviroment", "test")
	defer func() {
		os.Unsetenv("botToken")
		os.Unsetenv("PORT")
		os.Unsetenv("enviroment")
	}()

	// Reset global config
	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %v, want %v", got, "test-value")
	}

	if got := getEnv("NON_EXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	os.Setenv("enviroment", "prod")
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	os.Setenv("enviroment", "dev")
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}

	os.Unsetenv("enviroment")
}

func TestGet(t *testing.T) {
	resetForTesting()

	// Get should create a new config if none exists
	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	// Get should return the same config on subsequent calls
	config2 := Get()
	if config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{
		"botToken", "devGuildId", "mongodbUrl", "dbName", "MQTT_Host", "MQTT_Port",
		"PORT", "enviroment", "storageBackend", "automodSweepSeconds", "raidSweepSeconds", "mqttEnabled",
	} {
		os.Unsetenv(key)
	}

	resetForTesting()
	config, _ := Load()

	if config.MongoDBURL != "mongodb://localhost:27017" {
		t.Errorf("MongoDBURL default = %v, want %v", config.MongoDBURL, "mongodb://localhost:27017")
	}

	if config.DBName != "PancyGuard" {
		t.Errorf("DBName default = %v, want %v", config.DBName, "PancyGuard")
	}

	if config.MQTTHost != "localhost" {
		t.Errorf("MQTTHost default = %v, want %v", config.MQTTHost, "localhost")
	}

	if config.MQTTPort != "1883" {
		t.Errorf("MQTTPort default = %v, want %v", config.MQTTPort, "1883")
	}

	if config.MQTTEnabled {
		t.Error("MQTTEnabled default should be false")
	}

	if config.Port != "3000" {
		t.Errorf("Port default = %v, want %v", config.Port, "3000")
	}

	if config.Environment != "dev" {
		t.Errorf("Environment default = %v, want %v", config.Environment, "dev")
	}

	if config.StorageBackend != StorageFile {
		t.Errorf("StorageBackend default = %v, want %v", config.StorageBackend, StorageFile)
	}

	if config.AutomodSweepInterval != 30*time.Second {
		t.Errorf("AutomodSweepInterval default = %v, want %v", config.AutomodSweepInterval, 30*time.Second)
	}

	if config.RaidSweepInterval != 60*time.Second {
		t.Errorf("RaidSweepInterval default = %v, want %v", config.RaidSweepInterval, 60*time.Second)
	}
}

func TestStorageBackendIsLowercased(t *testing.T) {
	os.Setenv("storageBackend", "Mongo")
	defer os.Unsetenv("storageBackend")

	resetForTesting()
	config, _ := Load()

	if config.StorageBackend != StorageMongo {
		t.Errorf("StorageBackend = %v, want %v", config.StorageBackend, StorageMongo)
	}
}

func TestTypedGetters(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantInt int
	}{
		{"valid", "42", 42},
		{"invalid", "abc", 7},
		{"empty", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("TEST_INT", tt.value)
			defer os.Unsetenv("TEST_INT")

			if got := getEnvInt("TEST_INT", 7); got != tt.wantInt {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.wantInt)
			}
		})
	}

	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool() should parse true")
	}
	if getEnvBool("TEST_BOOL_MISSING", false) {
		t.Error("getEnvBool() should fall back to the default")
	}
}

func TestDeveloperIDs(t *testing.T) {
	os.Setenv("developerIds", " 111, ,222 ")
	defer os.Unsetenv("developerIds")
	resetForTesting()

	cfg, _ := Load()
	if len(cfg.DeveloperIDs) != 2 {
		t.Fatalf("DeveloperIDs = %v, want 2 entries", cfg.DeveloperIDs)
	}
	if !cfg.IsDeveloper("222") || cfg.IsDeveloper("333") {
		t.Errorf("IsDeveloper() mismatch for %v", cfg.DeveloperIDs)
	}
}
