package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	DrillbitApiUrl string

	SendCronSpec string
	PollCronSpec string

	SubmissionBatchLimit int
	MaxFileUploadSize    int64
	MaxFileNameLength    int
	UploadDir            string

	EmailSender string
	Password    string // SMTP Password
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// BodyLimit is the inbound request cap: the max upload size plus headroom for
// multipart framing and the other form fields. Oversize files must reach the
// lifecycle precheck and fail there with a persisted record, not die at the
// transport.
func (c *Config) BodyLimit() int {
	return int(c.MaxFileUploadSize) + 10*1024*1024
}

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DrillbitApiUrl: getEnv("DRILLBIT_API_URL", "https://www.drillbitplagiarismcheck.com/drillbit_new/api"),

		SendCronSpec: getEnv("SEND_CRON_SPEC", "*/5 * * * *"),
		PollCronSpec: getEnv("POLL_CRON_SPEC", "*/10 * * * *"),

		SubmissionBatchLimit: getEnvInt("SUBMISSION_BATCH_LIMIT", 100),
		MaxFileUploadSize:    getEnvInt64("MAX_FILE_UPLOAD_SIZE", 104857600), // 100 MiB
		MaxFileNameLength:    getEnvInt("MAX_FILE_NAME_LENGTH", 180),
		UploadDir:            getEnv("UPLOAD_DIR", "./uploads"),

		EmailSender: getEnv("EMAIL_SENDER", ""),
		Password:    getEnv("PASSWORD", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvInt64 retrieves an environment variable as an int64 or returns the default value
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Error converting environment variable %s to int64: %v", key, err)
		return defaultValue
	}
	return intValue
}
