package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputPath      string
	InputDelimiter rune
	RowLimit       int

	ReportPath   string
	ReportTopN   int
	CleanCSVPath string

	DBDriver         string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SQLitePath       string
	DBConnectRetries int
	SkipDB           bool
	ReplaceExisting  bool

	CleanShards int
	LogLevel    string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	loaded := godotenv.Load() == nil

	return &Config{
		InputPath:      getEnv("INPUT_PATH", "./data/caso_full.csv"),
		InputDelimiter: getEnvRune("INPUT_DELIMITER", ','),
		RowLimit:       getEnvInt("ROW_LIMIT", 20),

		ReportPath:   getEnv("REPORT_PATH", "./output/covid_report.txt"),
		ReportTopN:   getEnvInt("REPORT_TOP_N", 10),
		CleanCSVPath: getEnv("CLEAN_CSV_PATH", ""),

		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "covid"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "covid123"),
		PostgresDB:       getEnv("POSTGRES_DB", "covid_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./output/covid.db"),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),
		SkipDB:           getEnvBool("SKIP_DB", false),
		ReplaceExisting:  getEnvBool("REPLACE_EXISTING", false),

		CleanShards: getEnvInt("CLEAN_SHARDS", 1),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		EnvFileLoaded: loaded,
	}
}

// DSN returns the connection string for the configured database driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvRune takes the first rune of the value; "\t" and "tab" select a tab.
func getEnvRune(key string, fallback rune) rune {
	val := os.Getenv(key)
	switch val {
	case "":
		return fallback
	case `\t`, "tab":
		return '\t'
	}
	return []rune(val)[0]
}
