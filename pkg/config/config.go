// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends accepted by StorageBackend
const (
	StorageMongo  = "mongo"
	StorageRedis  = "redis"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken        string
	DevGuildID      string
	DeveloperIDs    []string
	ModLogChannelID string

	// Storage
	StorageBackend string
	MongoDBURL     string
	DBName         string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DataDir        string
	CacheTTL       time.Duration

	// MQTT
	MQTTEnabled  bool
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port     string
	APIToken string

	// Environment
	Environment string

	// Logging
	LogsDir      string
	ErrorWebhook string
	LogsWebhook  string

	// Moderation
	PolicyDefaultsFile   string
	AutomodSweepInterval time.Duration
	RaidSweepInterval    time.Duration
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken:        getEnv("botToken", ""),
		DevGuildID:      getEnv("devGuildId", ""),
		DeveloperIDs:    getEnvList("developerIds"),
		ModLogChannelID: getEnv("modLogChannelId", ""),

		// Storage
		StorageBackend: strings.ToLower(getEnv("storageBackend", StorageFile)),
		MongoDBURL:     getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:         getEnv("dbName", "PancyGuard"),
		RedisAddr:      getEnv("redisAddr", "localhost:6379"),
		RedisPassword:  getEnv("redisPassword", ""),
		RedisDB:        getEnvInt("redisDb", 0),
		DataDir:        getEnv("dataDir", "./data"),
		CacheTTL:       time.Duration(getEnvInt("cacheTTLSeconds", 300)) * time.Second,

		// MQTT
		MQTTEnabled:  getEnvBool("mqttEnabled", false),
		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port:     getEnv("PORT", "3000"),
		APIToken: getEnv("apiToken", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Logging
		LogsDir:      getEnv("logsDir", "./logs"),
		ErrorWebhook: getEnv("errorWebhook", ""),
		LogsWebhook:  getEnv("logsWebhook", ""),

		// Moderation
		PolicyDefaultsFile:   getEnv("policyDefaults", ""),
		AutomodSweepInterval: time.Duration(getEnvInt("automodSweepSeconds", 30)) * time.Second,
		RaidSweepInterval:    time.Duration(getEnvInt("raidSweepSeconds", 60)) * time.Second,
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer variable, falling back to the default when unset or invalid
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsDeveloper reports whether userID may run the /dev commands
func (c *Config) IsDeveloper(userID string) bool {
	for _, id := range c.DeveloperIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
