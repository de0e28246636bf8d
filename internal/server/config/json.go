package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/memahdii/social-network/internal/flagx"
	"github.com/memahdii/social-network/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; its fields are copied into the runtime Config.
type JsonConfig struct {
	Addr             string         `json:"addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	RedisAddr        string         `json:"redis_addr"`
	CacheTTL         timex.Duration `json:"cache_ttl"`
	GroupViewTTL     timex.Duration `json:"group_view_ttl"`
	ProvisionTimeout timex.Duration `json:"provision_timeout"`
	QueueWorkers     int            `json:"queue_workers"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; if
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics, matching the flag loader's behavior.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Addr != "" {
		config.Addr = c.Addr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.CacheTTL.Duration != 0 {
		config.CacheTTL = time.Duration(c.CacheTTL.Duration)
	}
	if c.GroupViewTTL.Duration != 0 {
		config.GroupViewTTL = time.Duration(c.GroupViewTTL.Duration)
	}
	if c.ProvisionTimeout.Duration != 0 {
		config.ProvisionTimeout = time.Duration(c.ProvisionTimeout.Duration)
	}
	if c.QueueWorkers != 0 {
		config.QueueWorkers = c.QueueWorkers
	}
}
