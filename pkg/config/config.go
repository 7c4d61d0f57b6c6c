package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "pricepilot"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	GitHub       GitHubConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Lookup       LookupConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == StorageBackendDocstore {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Backend == StorageBackendGitstore {
		if err := cfg.GitHub.validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRICEPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"PRICEPILOT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PRICEPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRICEPILOT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PRICEPILOT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	// StorageBackendDocstore keeps each record as a JSONB document row in Postgres.
	StorageBackendDocstore = "docstore"
	// StorageBackendGitstore keeps whole collections as JSON blobs in a git repository.
	StorageBackendGitstore = "gitstore"
	// StorageBackendMemory holds collections in process memory. Dev/test only.
	StorageBackendMemory = "memory"
)

type StorageConfig struct {
	Backend string `envconfig:"PRICEPILOT_STORAGE_BACKEND" default:"docstore"`
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case StorageBackendDocstore, StorageBackendGitstore, StorageBackendMemory:
		return nil
	}
	return fmt.Errorf("unknown storage backend %q", s.Backend)
}

type DBConfig struct {
	DSN    string `envconfig:"PRICEPILOT_DB_DSN"`
	Driver string `envconfig:"PRICEPILOT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PRICEPILOT_DB_HOST"`
	Port     int    `envconfig:"PRICEPILOT_DB_PORT" default:"5432"`
	User     string `envconfig:"PRICEPILOT_DB_USER"`
	Password string `envconfig:"PRICEPILOT_DB_PASSWORD"`
	Name     string `envconfig:"PRICEPILOT_DB_NAME"`
	SSLMode  string `envconfig:"PRICEPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRICEPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRICEPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRICEPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRICEPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN builds a DSN from discrete host/user/name parts when one is not
// supplied directly.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"PRICEPILOT_DB_HOST": db.Host,
		"PRICEPILOT_DB_USER": db.User,
		"PRICEPILOT_DB_NAME": db.Name,
	}
	for _, key := range []string{"PRICEPILOT_DB_HOST", "PRICEPILOT_DB_USER", "PRICEPILOT_DB_NAME"} {
		if parts[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either PRICEPILOT_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL      string `envconfig:"PRICEPILOT_REDIS_URL"`
	Address  string `envconfig:"PRICEPILOT_REDIS_ADDRESS"`
	Password string `envconfig:"PRICEPILOT_REDIS_PASSWORD"`
	DB       int    `envconfig:"PRICEPILOT_REDIS_DB" default:"0"`

	DialTimeout  time.Duration `envconfig:"PRICEPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRICEPILOT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"PRICEPILOT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// GitHubConfig locates the repository used as the gitstore backing medium.
type GitHubConfig struct {
	Owner   string        `envconfig:"PRICEPILOT_GITHUB_OWNER"`
	Repo    string        `envconfig:"PRICEPILOT_GITHUB_REPO"`
	Token   string        `envconfig:"PRICEPILOT_GITHUB_TOKEN"`
	Branch  string        `envconfig:"PRICEPILOT_GITHUB_BRANCH" default:"main"`
	Timeout time.Duration `envconfig:"PRICEPILOT_GITHUB_TIMEOUT" default:"10s"`
}

func (g GitHubConfig) validate() error {
	if g.Owner == "" || g.Repo == "" {
		return fmt.Errorf("PRICEPILOT_GITHUB_OWNER and PRICEPILOT_GITHUB_REPO are required for the gitstore backend")
	}
	return nil
}

type JWTConfig struct {
	Secret            string `envconfig:"PRICEPILOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRICEPILOT_JWT_ISSUER" default:"pricepilot"`
	ExpirationMinutes int    `envconfig:"PRICEPILOT_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTTLHours   int    `envconfig:"PRICEPILOT_JWT_REFRESH_TTL_HOURS" default:"336"`
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

// PasswordConfig tunes the Argon2id parameters used for local accounts.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRICEPILOT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRICEPILOT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRICEPILOT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRICEPILOT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRICEPILOT_ARGON_KEY_LEN" default:"32"`
}

// LookupConfig controls the external product database consulted on barcode misses.
type LookupConfig struct {
	BaseURL string        `envconfig:"PRICEPILOT_LOOKUP_BASE_URL" default:"https://world.openfoodfacts.org"`
	Timeout time.Duration `envconfig:"PRICEPILOT_LOOKUP_TIMEOUT" default:"4s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRICEPILOT_FEATURE_AUTO_MIGRATE" default:"true"`
}
