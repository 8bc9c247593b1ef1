package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"checklistapi/config"
)

const (
	configFileName = "checklistctl"
	configFileType = "yaml"
	envPrefix      = "CHECKLIST"

	cfgKeyBackend          = "backend"
	cfgKeyDBFile           = "db_file"
	cfgKeyMongoURI         = "mongo_uri"
	cfgKeyDatabase         = "database"
	cfgKeyIDStrategy       = "id_strategy"
	cfgKeyCorruptionPolicy = "corruption_policy"
	cfgKeyB2KeyID          = "b2_key_id"
	cfgKeyB2Key            = "b2_key"
	cfgKeyB2Bucket         = "b2_bucket"

	defaultBackend  = config.StoreBackendJSON
	defaultDBFile   = "data/localChecklist.json"
	defaultMongoURI = "mongodb://localhost:27017"
	defaultDatabase = "checklists"
)

// loadConfig layers defaults, the optional config file and the environment
// under the already-bound flags.
func (c *cli) loadConfig() error {
	v := c.v
	v.SetDefault(cfgKeyIDStrategy, config.IDStrategyCounter)
	// A maintenance tool must never wipe a document it cannot parse.
	v.SetDefault(cfgKeyCorruptionPolicy, config.CorruptionPolicyFail)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The server's B2 variables are accepted too.
	_ = v.BindEnv(cfgKeyB2KeyID, "CHECKLIST_B2_KEY_ID", "B2_APPLICATION_KEY_ID")
	_ = v.BindEnv(cfgKeyB2Key, "CHECKLIST_B2_KEY", "B2_APPLICATION_KEY")
	_ = v.BindEnv(cfgKeyB2Bucket, "CHECKLIST_B2_BUCKET", "B2_BUCKET_NAME")

	if c.configFile != "" {
		v.SetConfigFile(c.configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	switch backend := strings.ToLower(v.GetString(cfgKeyBackend)); backend {
	case config.StoreBackendJSON, config.StoreBackendMongo:
		v.Set(cfgKeyBackend, backend)
	default:
		return fmt.Errorf("unknown backend %q (valid: json, mongo)", backend)
	}
	return nil
}
