package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	Filters    FiltersConfig
	Query      QueryConfig
	Redis      RedisConfig
	Audit      AuditConfig
	Snapshot   SnapshotConfig
}

// DatabaseConfig carries either a full connection URL or the discrete
// connection fields. URL wins when both are set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	CredentialsFile string
}

type FiltersConfig struct {
	// DefaultWindowDays is the date window applied when a request gives
	// no explicit range.
	DefaultWindowDays int
}

type QueryConfig struct {
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuditConfig struct {
	// Backend selects the broker: "rabbitmq", "pubsub", or empty to disable.
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL          string
	QueueDurable bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

type SnapshotConfig struct {
	// Backend selects the object store: "minio", "gcs", or empty to disable.
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

// dbSecretKeys are the discrete connection keys required when no
// DATABASE_URL is given. Missing keys are enumerated at startup.
var dbSecretKeys = []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE"}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnvInt("DB_PORT", 0),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", ""),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			TokenTTL:        getEnvDuration("TOKEN_TTL", 24*time.Hour),
			CredentialsFile: getEnv("CREDENTIALS_FILE", "credentials.yaml"),
		},
		Filters: FiltersConfig{
			DefaultWindowDays: getEnvInt("FILTER_DEFAULT_WINDOW_DAYS", 30),
		},
		Query: QueryConfig{
			Timeout: getEnvDuration("QUERY_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),
		},
		Audit: AuditConfig{
			Backend: getEnv("AUDIT_BACKEND", ""),
			Channel: getEnv("AUDIT_CHANNEL", "insight-audit"),
			RabbitMQ: RabbitMQConfig{
				URL:          getEnv("RABBITMQ_URL", ""),
				QueueDurable: getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			},
			PubSub: PubSubConfig{
				ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			},
		},
		Snapshot: SnapshotConfig{
			Backend: getEnv("SNAPSHOT_BACKEND", ""),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "insight-snapshots"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
	}
}

// MissingSecretsError reports every absent database key, so operators can
// fix the whole set at once instead of one key per restart.
type MissingSecretsError struct {
	Keys []string
}

func (e *MissingSecretsError) Error() string {
	return fmt.Sprintf("missing required database keys: %s", strings.Join(e.Keys, ", "))
}

// Validate checks that the database connection is fully specified. A
// DATABASE_URL satisfies it on its own; otherwise every discrete key must
// be present.
func (c DatabaseConfig) Validate() error {
	if strings.TrimSpace(c.URL) != "" {
		return nil
	}

	present := map[string]bool{
		"DB_USER":     c.User != "",
		"DB_PASSWORD": c.Password != "",
		"DB_HOST":     c.Host != "",
		"DB_PORT":     c.Port != 0,
		"DB_NAME":     c.DBName != "",
		"DB_SSLMODE":  c.SSLMode != "",
	}

	var missing []string
	for _, key := range dbSecretKeys {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingSecretsError{Keys: missing}
	}
	return nil
}

// DSN returns the postgres connection string, preferring DATABASE_URL.
func (c DatabaseConfig) DSN() string {
	if strings.TrimSpace(c.URL) != "" {
		return c.URL
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		User:   url.UserPassword(c.User, c.Password),
		Path:   c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
