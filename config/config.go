package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const (
	ConflictPolicySingleSeating = "single_seating"
	ConflictPolicyOverlap       = "overlap"
)

// PostgresEndpoint is one side of the read/write split.
type PostgresEndpoint struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Username string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`
	Timezone string `envconfig:"TIMEZONE"`
	SSLMode  string `envconfig:"SSL_MODE"`
}

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Port     string `envconfig:"PORT"`
		Host     string `envconfig:"HOST"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME"`
		Timezone string `envconfig:"TIMEZONE"`
		CORS     struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable          bool `envconfig:"ENABLE"`
			MaxRequests     int  `envconfig:"MAX_REQUESTS"      default:"120"`
			ChatMaxRequests int  `envconfig:"CHAT_MAX_REQUESTS" default:"20"`
			WindowSeconds   int  `envconfig:"WINDOW_SECONDS"    default:"60"`
		} `envconfig:"RATE_LIMITER"`
		APIKey           string `envconfig:"API_KEY"`
		BookingLookupURL string `envconfig:"BOOKING_LOOKUP_URL" default:"/restaurant-booking/search"`
	} `envconfig:"APP"`

	Booking struct {
		ConflictPolicy       string  `envconfig:"CONFLICT_POLICY"        default:"single_seating"`
		CancelCutoffHours    float64 `envconfig:"CANCEL_CUTOFF_HOURS"    default:"2"`
		MaxAdvanceDays       int     `envconfig:"MAX_ADVANCE_DAYS"       default:"30"`
		CodeMaxAttempts      int     `envconfig:"CODE_MAX_ATTEMPTS"      default:"10"`
		DefaultDurationHours float64 `envconfig:"DEFAULT_DURATION_HOURS" default:"2"`
		OpeningTime          string  `envconfig:"OPENING_TIME"           default:"10:00"`
		ClosingTime          string  `envconfig:"CLOSING_TIME"           default:"22:00"`
		EventsTopic          string  `envconfig:"EVENTS_TOPIC"           default:"restaurant.booking.events"`
	} `envconfig:"BOOKING"`

	Conversation struct {
		SessionTTLSeconds int `envconfig:"SESSION_TTL_SECONDS" default:"1800"`
		LockTTLSeconds    int `envconfig:"LOCK_TTL_SECONDS"    default:"60"`
		HistoryLimit      int `envconfig:"HISTORY_LIMIT"       default:"20"`
		EventBuffer       int `envconfig:"EVENT_BUFFER"        default:"64"`
	} `envconfig:"CONVERSATION"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
				PoolSize int    `envconfig:"POOL_SIZE"`
				TLS      bool   `envconfig:"TLS"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret     string `envconfig:"ACCESS_SECRET"`
		RefreshSecret    string `envconfig:"REFRESH_SECRET"`
		AccessExpireMin  int    `envconfig:"ACCESS_EXPIRE_MIN"`
		RefreshExpireMin int    `envconfig:"REFRESH_EXPIRE_MIN"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry       int              `envconfig:"MAX_RETRY"         default:"5"`
			RetryWaitTime  int              `envconfig:"RETRY_WAIT_TIME"   default:"2"`
			MigrationTable string           `envconfig:"MIGRATION_TABLE"   default:"schema_migrations"`
			MigrationPath  string           `envconfig:"MIGRATION_PATH"    default:"migrations/postgres"`
			AutoMigrate    bool             `envconfig:"AUTO_MIGRATE"`
			Prefix         string           `envconfig:"PREFIX"`
			MaxOpenConns   int              `envconfig:"MAX_OPEN_CONNS"    default:"10"`
			MaxIdleConns   int              `envconfig:"MAX_IDLE_CONNS"    default:"10"`
			ConnMaxLifeMin int              `envconfig:"CONN_MAX_LIFE_MIN" default:"30"`
			Read           PostgresEndpoint `envconfig:"READ"`
			Write          PostgresEndpoint `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Enable        bool     `envconfig:"ENABLE"`
		Brokers       []string `envconfig:"BROKERS"`
		ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"reservo"`
		MaxAttempts   int      `envconfig:"MAX_ATTEMPTS" default:"3"`
		SASL          struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
	} `envconfig:"KAFKA"`

	External struct {
		Otel struct {
			Endpoint    string  `envconfig:"ENDPOINT"`
			SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1"`
		} `envconfig:"OTEL"`
		S3 struct {
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
			BucketName      string `envconfig:"BUCKET_NAME"`
			Region          string `envconfig:"REGION"            default:"auto"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
		} `envconfig:"S3"`
		LLM struct {
			APIKey            string  `envconfig:"API_KEY"`
			Model             string  `envconfig:"MODEL"               default:"gemini-1.5-flash"`
			TimeoutSeconds    int     `envconfig:"TIMEOUT_SECONDS"     default:"30"`
			RequestsPerMinute int     `envconfig:"REQUESTS_PER_MINUTE" default:"60"`
			Temperature       float32 `envconfig:"TEMPERATURE"         default:"0.7"`
		} `envconfig:"LLM"`
	} `envconfig:"EXTERNAL"`
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		err = godotenv.Load(".env")
		if err != nil {
			log.Warn().Err(err).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Info().Msg("Successfully loaded variables from .env file into environment")
		}

		err = envconfig.Process("", &conf)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to process environment variables")
		}

		initialized = true

		log.Info().Msg("Service configuration initialized successfully")
	})

	if err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize configuration")
		}
	}

	return &conf
}
