package shared

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "ORPHANAGE"

const (
	AUTH_MODE_HEADER = "header"
	AUTH_MODE_TOKEN  = "token"

	STORAGE_LOCAL = "local"
	STORAGE_GCS   = "gcs"

	QUEUE_MEMORY = "memory"
	QUEUE_PUBSUB = "pubsub"
)

type AppConfig struct {
	Port string `default:"5000"`

	DbDialect      string `split_words:"true" default:"postgres"`
	PgUsername     string `split_words:"true" default:"postgres"`
	PgPassword     string `split_words:"true" default:"postgres"`
	PgContactPoint string `split_words:"true" default:"127.0.0.1"`
	PgContactPort  string `split_words:"true" default:"5432"`
	PgDbName       string `split_words:"true" default:"orphanage"`
	SqlitePath     string `split_words:"true" default:"orphanage.db"`

	StartupMigration bool `split_words:"true" default:"true"`
	SeedDatabase     bool `split_words:"true" default:"false"`

	UploadsDir        string `split_words:"true" default:"uploads"`
	UploadsUrlPrefix  string `split_words:"true" default:"/uploads"`
	DefaultPhotoUrl   string `split_words:"true" default:"/img/default_avatar.png"`
	MaxUploadSizeMb   int64  `split_words:"true" default:"10"`
	PhotoMaxDimension int    `split_words:"true" default:"1024"`

	StorageBackend       string `split_words:"true" default:"local"`
	BucketName           string `split_words:"true" default:"orphanage-uploads"`
	BucketServiceAccount string `split_words:"true"`

	AuthMode         string        `split_words:"true" default:"header"`
	TokenSecret      string        `split_words:"true"`
	TokenTtl         time.Duration `split_words:"true" default:"24h"`
	RedisAddr        string        `split_words:"true"`
	RedisPassword    string        `split_words:"true"`
	IdentityCacheTtl time.Duration `split_words:"true" default:"5m"`

	SmtpHost     string `split_words:"true"`
	SmtpPort     int    `split_words:"true" default:"587"`
	SmtpUsername string `split_words:"true"`
	SmtpPassword string `split_words:"true"`
	SmtpFrom     string `split_words:"true"`

	JobQueue             string        `split_words:"true" default:"memory"`
	GcpProjectID         string        `split_words:"true"`
	PubSubTopic          string        `split_words:"true" default:"orphanage-jobs"`
	PubSubSubscription   string        `split_words:"true" default:"orphanage-jobs-worker"`
	PubSubServiceAccount string        `split_words:"true"`
	JobRetrySchedule     string        `split_words:"true" default:"@every 5m"`
	JobMaxAttempts       int           `split_words:"true" default:"5"`
	JobStaleAfter        time.Duration `split_words:"true" default:"15m"`
}

func (c *AppConfig) MaxUploadSize() int64 {
	return c.MaxUploadSizeMb << 20
}

func (c *AppConfig) MailConfigured() bool {
	return c.SmtpHost != "" && c.SmtpFrom != ""
}

// InitAppConfiguration reads an optional .env file, then the environment.
// Variables already set in the environment take precedence over the file.
func InitAppConfiguration() (config *AppConfig, err error) {
	if _, statErr := os.Stat(".env"); statErr == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %v", err)
		}
	}

	config = &AppConfig{}
	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	if config.AuthMode != AUTH_MODE_HEADER && config.AuthMode != AUTH_MODE_TOKEN {
		return nil, fmt.Errorf("invalid auth mode %q, must be %q or %q", config.AuthMode, AUTH_MODE_HEADER, AUTH_MODE_TOKEN)
	}
	if config.AuthMode == AUTH_MODE_TOKEN && config.TokenSecret == "" {
		return nil, fmt.Errorf("%s_TOKEN_SECRET is required when auth mode is %q", CONFIG_PREFIX, AUTH_MODE_TOKEN)
	}

	return
}
