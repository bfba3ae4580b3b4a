package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SeatOverride is a statically configured seat merged into the directory
// after the server's records, useful when a venue labels seats ahead of the
// server or for bench testing without a populated meeting.
type SeatOverride struct {
	Number        int    `mapstructure:"number"`
	SeatName      string `mapstructure:"seat_name"`
	ScreenLine    string `mapstructure:"screen_line"`
	SeatID        string `mapstructure:"seat_id"`
	ParticipantID string `mapstructure:"participant_id"`
}

type Config struct {
	Mode string `mapstructure:"mode"`

	// Conference server
	ServerAddr string `mapstructure:"server_addr"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`

	// OSC surface
	OSCTargetHost string `mapstructure:"osc_target_host"`
	OSCTargetPort int    `mapstructure:"osc_target_port"`
	LocalOSCPort  int    `mapstructure:"local_osc_port"`

	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Diagnostics HTTP API; 0 disables it.
	HTTPPort int `mapstructure:"http_port"`

	Seats []SeatOverride `mapstructure:"seats"`
}

// Load reads config/config.<env>.yaml plus environment overrides. The env
// variable names match the legacy deployment (DICENTIS_SERVER_IP and
// friends). Producing the file in the first place is the setup wizard's job,
// not ours; a missing or incomplete config fails Load with a pointer at it.
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
	v.SetDefault("osc_target_port", 9000)
	v.SetDefault("local_osc_port", 8000)
	v.SetDefault("poll_interval", "500ms")
	v.SetDefault("http_port", 0)

	_ = v.BindEnv("server_addr", "DICENTIS_SERVER_IP")
	_ = v.BindEnv("username", "DICENTIS_USERNAME")
	_ = v.BindEnv("password", "DICENTIS_PASSWORD")
	_ = v.BindEnv("osc_target_host", "OSC_TARGET_IP")
	_ = v.BindEnv("osc_target_port", "OSC_TARGET_PORT")
	_ = v.BindEnv("local_osc_port", "LOCAL_OSC_PORT")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).
			Msg("config file not found, relying on environment and defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config (run the setup wizard or fix %s): %w", fileName, err)
	}
	return &cfg, nil
}

// Validate checks the fields the bridge cannot run without.
func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.OSCTargetHost == "" {
		return fmt.Errorf("osc_target_host is required")
	}
	if c.OSCTargetPort < 1 || c.OSCTargetPort > 65535 {
		return fmt.Errorf("osc_target_port %d out of range", c.OSCTargetPort)
	}
	if c.LocalOSCPort < 1 || c.LocalOSCPort > 65535 {
		return fmt.Errorf("local_osc_port %d out of range", c.LocalOSCPort)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", c.HTTPPort)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
