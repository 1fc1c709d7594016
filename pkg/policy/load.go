package policy

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/neterr"
)

// Config is the on-disk policy file. Missing keys keep their defaults.
type Config struct {
	Privacy  Privacy  `yaml:"privacy"`
	Security Security `yaml:"security"`
}

// Default returns the all-protections-on configuration.
func Default() Config {
	return Config{Privacy: DefaultPrivacy(), Security: DefaultSecurity()}
}

// Parse decodes a YAML policy document over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, neterr.Wrap("config.policy_invalid", "failed to parse policy file", err)
	}

	if err := cfg.Security.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses the policy file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, neterr.Wrap("config.policy_unreadable", "failed to read policy file "+path, err)
	}

	return Parse(data)
}

// Marshal encodes cfg as YAML.
func (cfg Config) Marshal() ([]byte, error) { return yaml.Marshal(cfg) }
