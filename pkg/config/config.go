// Package config loads the server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from strings like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the full server configuration.
type Config struct {
	Net        NetConfig        `yaml:"net"`
	Auth       *AuthConfig      `yaml:"auth"`
	Message    MessageConfig    `yaml:"message"`
	Moderation ModerationConfig `yaml:"moderation"`
}

// NetConfig configures the listener. TLS is enabled when both CertFile and
// KeyFile are set.
type NetConfig struct {
	Address  string `yaml:"address"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig configures the token service. The section is optional; without
// it JWT login and minting report NotSupported.
type AuthConfig struct {
	KeyFile   string   `yaml:"key_file"`
	Algorithm string   `yaml:"algorithm"`
	ValidTime Duration `yaml:"valid_time"`
}

// MessageConfig configures message validation and rate limiting.
type MessageConfig struct {
	Capacity  int      `yaml:"capacity"`
	RegenTime Duration `yaml:"regen_time"`
	MaxLength int      `yaml:"max_length"`
}

// ModerationConfig locates the ban/moderator file.
type ModerationConfig struct {
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Net: NetConfig{
			Address: "0.0.0.0:8080",
		},
		Message: MessageConfig{
			Capacity:  10,
			RegenTime: Duration(2 * time.Second),
			MaxLength: 256,
		},
		Moderation: ModerationConfig{
			File: "moderation.yml",
		},
	}
}

// Load reads the config at path. A missing file yields the defaults; an
// unreadable or malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
