package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"checklistapi/utils"
)

const (
	StoreBackendJSON  = "json"
	StoreBackendMongo = "mongo"

	CorruptionPolicyReset = "reset"
	CorruptionPolicyFail  = "fail"

	IDStrategyCounter = "counter"
	IDStrategyUUID    = "uuid"
)

type Config struct {
	Port string
	Env  string

	StoreBackend     string
	DBFile           string
	CorruptionPolicy string
	IDStrategy       string

	MongoURI     string
	DatabaseName string

	JWTSecret           string
	JWTIssuer           string
	JWKSURL             string
	JWKSRefreshInterval time.Duration
	AuthDisabled        bool

	B2ApplicationKeyID string
	B2ApplicationKey   string
	B2BucketName       string
	SnapshotInterval   time.Duration

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

var AppConfig *Config

// LoadConfig reads the environment into AppConfig. Invalid values are fatal.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		utils.LogFatal("Invalid configuration", err)
	}
	AppConfig = cfg

	logConfig()
}

// Load builds a Config from the environment without touching AppConfig.
func Load() (*Config, error) {
	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	jwksRefresh, err := parseDuration("JWKS_REFRESH_INTERVAL", getEnv("JWKS_REFRESH_INTERVAL", "1h"))
	collect(err)
	snapshotInterval, err := parseDuration("SNAPSHOT_INTERVAL", getEnv("SNAPSHOT_INTERVAL", "24h"))
	collect(err)
	authDisabled, err := parseBool("AUTH_DISABLED", getEnv("AUTH_DISABLED", "false"))
	collect(err)

	cfg := &Config{
		Port: getEnv("PORT", "8001"),
		Env:  getEnv("ENV", "development"),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StoreBackendJSON)),
		DBFile:           getEnv("DB_FILE", "data/localChecklist.json"),
		CorruptionPolicy: strings.ToLower(getEnv("CORRUPTION_POLICY", CorruptionPolicyReset)),
		IDStrategy:       strings.ToLower(getEnv("ID_STRATEGY", IDStrategyCounter)),

		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "checklists"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTIssuer:           getEnv("JWT_ISSUER", ""),
		JWKSURL:             getEnv("JWKS_URL", ""),
		JWKSRefreshInterval: jwksRefresh,
		AuthDisabled:        authDisabled,

		B2ApplicationKeyID: getEnv("B2_APPLICATION_KEY_ID", ""),
		B2ApplicationKey:   getEnv("B2_APPLICATION_KEY", ""),
		B2BucketName:       getEnv("B2_BUCKET_NAME", ""),
		SnapshotInterval:   snapshotInterval,

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	collect(cfg.validate())

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// BackupEnabled reports whether snapshot uploads to B2 are configured.
func (c *Config) BackupEnabled() bool {
	return c.B2ApplicationKeyID != "" && c.B2ApplicationKey != "" && c.B2BucketName != ""
}

func (c *Config) validate() error {
	var problems []string

	switch c.StoreBackend {
	case StoreBackendJSON:
		if c.DBFile == "" {
			problems = append(problems, "DB_FILE must not be empty")
		}
	case StoreBackendMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI must not be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND %q is not one of json, mongo", c.StoreBackend))
	}

	if c.CorruptionPolicy != CorruptionPolicyReset && c.CorruptionPolicy != CorruptionPolicyFail {
		problems = append(problems, fmt.Sprintf("CORRUPTION_POLICY %q is not one of reset, fail", c.CorruptionPolicy))
	}

	if c.IDStrategy != IDStrategyCounter && c.IDStrategy != IDStrategyUUID {
		problems = append(problems, fmt.Sprintf("ID_STRATEGY %q is not one of counter, uuid", c.IDStrategy))
	}

	if !c.AuthDisabled && c.JWTSecret == "" && c.JWKSURL == "" {
		problems = append(problems, "one of JWT_SECRET or JWKS_URL is required unless AUTH_DISABLED=true")
	}

	if c.SnapshotInterval < 0 {
		problems = append(problems, "SNAPSHOT_INTERVAL must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func logConfig() {
	utils.LogInfo("Configuration loaded",
		"port", AppConfig.Port,
		"env", AppConfig.Env,
		"store_backend", AppConfig.StoreBackend,
		"db_file", AppConfig.DBFile,
		"mongo_uri", maskConnectionString(AppConfig.MongoURI),
		"corruption_policy", AppConfig.CorruptionPolicy,
		"id_strategy", AppConfig.IDStrategy,
		"jwt_secret", maskSecret(AppConfig.JWTSecret),
		"jwks_url", AppConfig.JWKSURL,
		"auth_disabled", AppConfig.AuthDisabled,
		"b2_key_id", maskSecret(AppConfig.B2ApplicationKeyID),
		"b2_bucket", AppConfig.B2BucketName,
		"snapshot_interval", AppConfig.SnapshotInterval,
		"allowed_origins", AppConfig.AllowedOrigins,
	)
}

func maskSecret(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	if len(secret) <= 8 {
		return "[HIDDEN]"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func maskConnectionString(uri string) string {
	if uri == "" {
		return "[NOT SET]"
	}
	if strings.Contains(uri, "@") {
		parts := strings.Split(uri, "@")
		if len(parts) >= 2 {
			return "[CREDENTIALS_HIDDEN]@" + parts[len(parts)-1]
		}
	}
	return uri
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s duration %q", key, s)
	}
	return d, nil
}

func parseBool(key, s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s boolean %q", key, s)
	}
	return b, nil
}

func CreateContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
