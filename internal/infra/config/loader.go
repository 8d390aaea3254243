package config

import (
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "BRIDGE"

// Load layers an optional YAML file and BRIDGE_* environment variables over
// DefaultConfig. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AutomaticEnv only reaches keys viper already knows about, so every key
// gets a zero default here.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"server.addr", "server.read_timeout", "server.write_timeout",
		"database.path",
		"portal.url",
		"checkout.access_key", "checkout.profile_id", "checkout.secret_key",
		"checkout.endpoint", "checkout.transaction_type", "checkout.reference_hash_key",
		"gateway.base_url", "gateway.merchant_id", "gateway.key_id", "gateway.shared_key",
		"gateway.timeout", "gateway.search_size",
		"ledger.base_url", "ledger.timeout",
		"reconcile.enabled", "reconcile.interval", "reconcile.days_ago",
		"reconcile.client_reference", "reconcile.concurrency", "reconcile.rate_per_second",
		"logging.level", "logging.format",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
