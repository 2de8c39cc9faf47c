package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PAYGATE_DATABASE_DSN.
const EnvPrefix = "PAYGATE"

// parseFile overlays values from the config file at path (JSON or YAML,
// chosen by extension) and from PAYGATE_* environment variables onto config.
// Keys absent from both keep their current value. An empty path skips the
// file but still applies the environment.
func parseFile(config *Config, path string) error {
	v := viper.New()

	defaults := map[string]any{
		"endpoint_addr_http":              config.EndpointAddrHTTP,
		"metrics_addr":                    config.MetricsAddr,
		"database_dsn":                    config.DatabaseDSN,
		"access_secret":                   config.AccessSecret,
		"refresh_secret":                  config.RefreshSecret,
		"access_token_validity_duration":  config.AccessTokenValidityDuration,
		"refresh_token_validity_duration": config.RefreshTokenValidityDuration,
		"bcrypt_cost":                     config.BcryptCost,
		"redis_addr":                      config.RedisAddr,
		"log_level":                       config.LogLevel,
		"log_pretty":                      config.LogPretty,
		"cookie_secure":                   config.CookieSecure,
		"request_timeout":                 config.RequestTimeout,
		"revoked_prune_interval":          config.RevokedPruneInterval,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(config)
}
