package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`

	GatewayURL string        `mapstructure:"gateway_url"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	SIPProxy     string `mapstructure:"sip_proxy"`
	SIPProxyPort int    `mapstructure:"sip_proxy_port"`
	DialURI      string `mapstructure:"dial_uri"`

	VideoRoom uint64 `mapstructure:"video_room"`
	RoomSlots int    `mapstructure:"room_slots"`
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
	v.SetDefault("port", 8080)
	v.SetDefault("gateway_url", "ws://localhost:8188/janus")
	v.SetDefault("ping_period", "25s")
	v.SetDefault("sip_proxy", "localhost")
	v.SetDefault("sip_proxy_port", 5060)
	v.SetDefault("dial_uri", "")
	v.SetDefault("video_room", 1234)
	v.SetDefault("room_slots", 5)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Gateway: %s\n", cfg.Mode, cfg.Port, cfg.GatewayURL)
	return &cfg, nil
}
