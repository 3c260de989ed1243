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
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	// External collaborators, consumed as black boxes.
	ExecURL    string        `mapstructure:"exec_url"`
	GenURL     string        `mapstructure:"gen_url"`
	GenAPIKey  string        `mapstructure:"gen_api_key"`
	HTTPClient time.Duration `mapstructure:"http_client_timeout"`

	// Chat flood guard: at most chat_limit messages per chat_window
	// per participant.
	ChatLimit  int           `mapstructure:"chat_limit"`
	ChatWindow time.Duration `mapstructure:"chat_window"`
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
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("exec_url", "https://emkc.org/api/v2/piston")
	v.SetDefault("gen_url", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent")
	v.SetDefault("gen_api_key", os.Getenv("GEMINI_API_KEY"))
	v.SetDefault("http_client_timeout", "10s")
	v.SetDefault("chat_limit", 20)
	v.SetDefault("chat_window", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
