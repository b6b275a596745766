package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageJSON  = "json"
	StorageMySQL = "mysql"
)

type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Log        LogConfig
	Simulation SimulationConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type StorageConfig struct {
	Driver  string
	DataDir string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type LogConfig struct {
	Level  string
	Format string
}

type SimulationConfig struct {
	// ServerTicker runs the tick loop inside the server instead of relying on a client
	ServerTicker bool
	// SeedOnStart seeds this many patients when the store is empty, 0 disables it
	SeedOnStart int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Storage: StorageConfig{
			Driver:  strings.ToLower(getEnv("STORAGE_DRIVER", StorageJSON)),
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "er_tracking"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Simulation: SimulationConfig{
			ServerTicker: parseBool(getEnv("SIMULATION_SERVER_TICKER", "false")),
			SeedOnStart:  parseInt(getEnv("SEED_ON_START", "0")),
		},
	}

	return config
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageJSON, StorageMySQL:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if c.Simulation.SeedOnStart < 0 {
		return fmt.Errorf("SEED_ON_START cannot be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		fmt.Printf("Warning: Invalid boolean '%s', using false\n", s)
		return false
	}
	return b
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using 0\n", s)
		return 0
	}
	return n
}

func parseOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
