package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for selecty.
type Config struct {
	General GeneralConfig `json:"general"`
	Chat    ChatConfig    `json:"chat"`
	Camera  CameraConfig  `json:"camera"`
	Booking BookingConfig `json:"booking"`
}

type GeneralConfig struct {
	LogLevel   string `json:"logLevel"`
	RosterPath string `json:"rosterPath,omitempty"` // stylist roster YAML; empty uses the built-in roster
}

// ChatConfig tunes the consultation session.
type ChatConfig struct {
	ReplyDelayMs int    `json:"replyDelayMs"`
	ReplyText    string `json:"replyText,omitempty"` // empty uses the built-in placeholder
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	Device     string `json:"device"` // "browser" | "testpattern"
	FakeDevice bool   `json:"fakeDevice,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// BookingConfig configures booking persistence and staff notification.
type BookingConfig struct {
	DBPath   string         `json:"dbPath"`
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chatId,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.selecty).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".selecty"
	}
	return filepath.Join(home, ".selecty")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Chat: ChatConfig{
			ReplyDelayMs: 2000,
		},
		Camera: CameraConfig{
			Device: "browser",
			Width:  640,
			Height: 480,
		},
		Booking: BookingConfig{
			DBPath: expandPath("~/.selecty/bookings.db"),
		},
	}
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.RosterPath = expandPath(cfg.General.RosterPath)
	cfg.Booking.DBPath = expandPath(cfg.Booking.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Camera.Device {
	case "browser", "testpattern":
		// valid
	default:
		errs = append(errs, "camera.device must be one of: browser, testpattern")
	}
	if cfg.Camera.Width < 0 || cfg.Camera.Height < 0 {
		errs = append(errs, "camera dimensions must be >= 0")
	}
	if cfg.Chat.ReplyDelayMs < 1 {
		errs = append(errs, "chat.replyDelayMs must be >= 1")
	}
	if cfg.Booking.DBPath == "" {
		errs = append(errs, "booking.dbPath must be set")
	}
	if cfg.Booking.Telegram.Enabled && cfg.Booking.Telegram.Token == "" {
		errs = append(errs, "booking.telegram.token required when telegram is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
