package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LiveKitURL string        `mapstructure:"livekit_url"`
	APIKey     string        `mapstructure:"api_key"`
	APISecret  string        `mapstructure:"api_secret"`
	Secret     string        `mapstructure:"secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 6080)
	v.SetDefault("livekit_url", "http://localhost:7880/")
	v.SetDefault("token_ttl", "6h")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")

	// Secrets usually come from the environment, not the yaml file.
	_ = v.BindEnv("api_key", "LIVEKIT_API_KEY")
	_ = v.BindEnv("api_secret", "LIVEKIT_API_SECRET")
	_ = v.BindEnv("livekit_url", "LIVEKIT_URL")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | LiveKit: %s\n", cfg.Mode, cfg.Port, cfg.LiveKitURL)
	return &cfg, nil
}
