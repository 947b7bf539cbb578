package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the smartlocker service. Values come
// from the environment (optionally seeded by a .env file next to the binary).
type Config struct {
	Port  string
	Debug bool

	StorageBackend string // "file" or "postgres"
	StoragePath    string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	SerialPort   string
	BaudRate     int
	MockHardware bool

	DoorCloseTimeout time.Duration
	DoorPollInterval time.Duration

	DepositCodeLength  int
	WithdrawCodeLength int

	ReservedLockers map[int]bool

	KafkaBrokers []string
	KafkaTopic   string

	AdminUsername string
	AdminPassword string
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}
}

// Load reads the configuration from the environment, applying defaults that
// match a single-closet development setup with mocked hardware.
func Load() (*Config, error) {
	loadEnv()

	cfg := &Config{
		Port:               getEnv("SMARTLOCKER_PORT", "5000"),
		Debug:              getEnvBool("SMARTLOCKER_DEBUG", false),
		StorageBackend:     getEnv("SMARTLOCKER_STORAGE", "file"),
		StoragePath:        getEnv("SMARTLOCKER_STORAGE_PATH", "smartlocker.json"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnvInt("DB_PORT", 5432),
		DBUser:             getEnv("POSTGRES_USER", "postgres"),
		DBPassword:         getEnv("POSTGRES_PASSWORD", ""),
		DBName:             getEnv("POSTGRES_DB", "smartlocker"),
		SerialPort:         getEnv("SMARTLOCKER_SERIAL_PORT", "/dev/ttyAMA0"),
		BaudRate:           getEnvInt("SMARTLOCKER_BAUD_RATE", 115200),
		MockHardware:       getEnvBool("SMARTLOCKER_MOCK", true),
		DepositCodeLength:  getEnvInt("SMARTLOCKER_DEPOSIT_CODE_LENGTH", 6),
		WithdrawCodeLength: getEnvInt("SMARTLOCKER_WITHDRAW_CODE_LENGTH", 6),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "locker_transactions"),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}

	switch cfg.StorageBackend {
	case "file", "postgres":
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	timeoutSec := getEnvInt("SMARTLOCKER_DOOR_CLOSE_TIMEOUT", 25)
	cfg.DoorCloseTimeout = time.Duration(timeoutSec) * time.Second

	pollSec := getEnvFloat("SMARTLOCKER_DOOR_POLL_INTERVAL", 0.5)
	cfg.DoorPollInterval = time.Duration(pollSec * float64(time.Second))
	if cfg.DoorPollInterval <= 0 {
		return nil, fmt.Errorf("door poll interval must be positive, got %v", cfg.DoorPollInterval)
	}

	reserved, err := parseIDSet(getEnv("SMARTLOCKER_RESERVED_LOCKERS", "16"))
	if err != nil {
		return nil, fmt.Errorf("parse reserved lockers: %w", err)
	}
	cfg.ReservedLockers = reserved

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	return cfg, nil
}

// DatabaseDSN builds the postgres connection string the same way for the
// service and the auxiliary commands.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func parseIDSet(raw string) (map[int]bool, error) {
	ids := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid locker id %q", part)
		}
		ids[id] = true
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}
