package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.demo_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/rtcc.db")

	// External backend gateway
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", "10s")

	// Theme defaults
	v.SetDefault("theme.default", "neural-cosmic-dark")

	// Module defaults
	v.SetDefault("modules.fleet.enabled", true)
	v.SetDefault("modules.fleet.stale_after", "15m")
	v.SetDefault("modules.incidents.enabled", true)
	v.SetDefault("modules.incidents.retention_period", "2160h")
	v.SetDefault("modules.crimedata.enabled", true)
	v.SetDefault("modules.crimedata.max_upload_bytes", 10485760)
	v.SetDefault("modules.watch.enabled", true)
	v.SetDefault("modules.watch.check_interval", "30s")
	v.SetDefault("modules.watch.check_timeout", "5s")
	v.SetDefault("modules.watch.ping_count", 3)
	v.SetDefault("modules.watch.consecutive_failures", 3)
	v.SetDefault("modules.watch.max_workers", 10)
	v.SetDefault("modules.notify.enabled", true)
	v.SetDefault("modules.notify.url", "")
	v.SetDefault("modules.notify.timeout", "10s")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("rtcc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/rtcc")
	}

	// Environment variable support: RTCC_SERVER_PORT=9090
	v.SetEnvPrefix("RTCC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
