// Package config handles application configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/raykavin/tradechart/pkg/axis"
	"github.com/raykavin/tradechart/pkg/calendar"
)

// Constants for configuration
const (
	DefaultConfigName  = "tradechart"
	DefaultStoragePath = "./tradechart.db"
	DefaultWidth       = 1200
	DefaultPanelHeight = 300

	envPrefix = "TRADECHART"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Width       int
	PanelHeight int
	MaxTicks    int
	ShiftDays   int
	StoragePath string
	Binance     BinanceConfig
	Telegram    TelegramConfig
}

// BinanceConfig holds Binance exchange configuration
type BinanceConfig struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Futures    bool
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled bool
	Token   string
	Chats   []int64
}

// Load reads path, or tradechart.yaml from the working directory when path is
// empty, and applies TRADECHART_* environment overrides. A missing default
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("width", DefaultWidth)
	v.SetDefault("panel_height", DefaultPanelHeight)
	v.SetDefault("max_ticks", axis.DefaultMaxTicks)
	v.SetDefault("shift_days", calendar.DefaultShiftBackDays)
	v.SetDefault("storage_path", DefaultStoragePath)
	v.SetDefault("binance.api_key", "")
	v.SetDefault("binance.secret_key", "")
	v.SetDefault("binance.use_testnet", false)
	v.SetDefault("binance.futures", false)
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chats", []string{})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read configuration: %w", err)
			}
		}
	}

	chats, err := parseChats(v.GetStringSlice("telegram.chats"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Width:       v.GetInt("width"),
		PanelHeight: v.GetInt("panel_height"),
		MaxTicks:    v.GetInt("max_ticks"),
		ShiftDays:   v.GetInt("shift_days"),
		StoragePath: v.GetString("storage_path"),
		Binance: BinanceConfig{
			APIKey:     v.GetString("binance.api_key"),
			SecretKey:  v.GetString("binance.secret_key"),
			UseTestnet: v.GetBool("binance.use_testnet"),
			Futures:    v.GetBool("binance.futures"),
		},
		Telegram: TelegramConfig{
			Enabled: v.GetBool("telegram.enabled"),
			Token:   v.GetString("telegram.token"),
			Chats:   chats,
		},
	}

	return config, config.Validate()
}

// Validate checks sizes and the Telegram settings.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.PanelHeight <= 0:
		return fmt.Errorf("%w: figure size %dx%d", ErrInvalidConfig, c.Width, c.PanelHeight)
	case c.MaxTicks <= 0:
		return fmt.Errorf("%w: max_ticks %d", ErrInvalidConfig, c.MaxTicks)
	case c.ShiftDays < 0:
		return fmt.Errorf("%w: shift_days %d", ErrInvalidConfig, c.ShiftDays)
	case c.Telegram.Enabled && (c.Telegram.Token == "" || len(c.Telegram.Chats) == 0):
		return fmt.Errorf("%w: telegram needs a token and at least one chat", ErrInvalidConfig)
	}
	return nil
}

func parseChats(values []string) ([]int64, error) {
	chats := make([]int64, 0, len(values))
	for _, value := range values {
		for _, field := range strings.Split(value, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}

			chat, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: telegram chat %q", ErrInvalidConfig, field)
			}
			chats = append(chats, chat)
		}
	}
	return chats, nil
}
