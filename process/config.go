package process

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/tsed/internal/script"
	"github.com/gnoswap-labs/tsed/internal/syntax"
)

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = ".tsed.yaml"

// Config is the layout of the configuration file. Every scalar can be
// overridden from the environment with a TSED_ prefix, e.g. TSED_JOBS.
type Config struct {
	// Language forces one grammar for every input.
	Language string `mapstructure:"language" yaml:"language,omitempty"`
	// Extensions routes file extensions to grammars by name.
	Extensions map[string]string `mapstructure:"extensions" yaml:"extensions,omitempty"`
	// Jobs bounds the files processed at once. Zero means one per CPU.
	Jobs int `mapstructure:"jobs" yaml:"jobs,omitempty"`
	// Scripts are named scripts usable with --rule.
	Scripts []script.Rule `mapstructure:"scripts" yaml:"scripts,omitempty"`
}

// DefaultConfig is the configuration written by tsed init.
func DefaultConfig() Config {
	return Config{
		Extensions: map[string]string{},
		Scripts: []script.Rule{
			{
				Name:        "drop-debug-calls",
				Description: "Delete calls to debug()",
				Language:    "go",
				Script:      `d/(CallExpr Fun: (Ident) @fn (#eq? @fn "debug"))/`,
			},
		},
	}
}

// LoadConfig reads the configuration file at path on fs. A missing file
// yields an error satisfying errors.Is(err, fs.ErrNotExist).
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	// Extension keys start with a dot, so keep viper from splitting on it.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("tsed")
	v.AutomaticEnv()
	v.SetDefault("language", "")
	v.SetDefault("jobs", 0)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := script.CheckRules(cfg.Scripts); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig stores cfg as YAML at path on fs.
func WriteConfig(fs afero.Fs, path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// Apply routes the configured extensions in reg.
func (c Config) Apply(reg *syntax.Registry) error {
	for ext, name := range c.Extensions {
		if err := reg.MapExtension(ext, name); err != nil {
			return fmt.Errorf("extension %s: %w", ext, err)
		}
	}
	if c.Language != "" {
		if _, err := reg.Lookup(c.Language); err != nil {
			return err
		}
	}
	return nil
}
