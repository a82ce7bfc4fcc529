package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bludgeon/internal/util"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns ~/.bludgeon/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := util.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDirName, GlobalConfigFileName), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("stateDir", "~/"+DefaultConfigDirName)
	v.SetDefault("wpcli.url", DefaultToolURL)
	v.SetDefault("wpcli.path", "")
	v.SetDefault("wpcli.envFile", "")
	v.SetDefault("wpcli.checkUpdates", false)
	v.SetDefault("wpcli.releaseRepo", DefaultReleaseRepo)
	v.SetDefault("plugin.slug", DefaultPluginSlug)
	v.SetDefault("mysql.driver", MySQLDriverCLI)
	v.SetDefault("mysql.binary", DefaultMySQLBinary)
	v.SetDefault("mysql.user", DefaultMySQLUser)
	v.SetDefault("mysql.database", "")
	v.SetDefault("mysql.address", "")
	v.SetDefault("mysql.configFile", DefaultMySQLConfig)
	v.SetDefault("mysql.configSection", DefaultMySQLSection)
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.payload", "")
}

// Load reads configFilePath (missing file means defaults), overlays
// BLUDGEON_* environment variables and expands paths.
func Load(configFilePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFilePath, err)
			}
			util.Log.Debugf("Config file not found at %s, using defaults.", configFilePath)
		} else {
			util.Log.Debugf("Loaded config from %s", configFilePath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandPaths expands ~ and $VARS and anchors relative paths at the working
// directory; WP-CLI itself runs inside the install directory.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.StateDir, &c.WPCLI.Path, &c.WPCLI.EnvFile, &c.MySQL.ConfigFile} {
		expanded, err := util.ExpandPath(*p)
		if err != nil {
			return err
		}
		if expanded != "" {
			if expanded, err = filepath.Abs(expanded); err != nil {
				return fmt.Errorf("failed to get absolute path for '%s': %w", *p, err)
			}
		}
		*p = expanded
	}
	return nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	switch c.MySQL.Driver {
	case MySQLDriverCLI, MySQLDriverNative:
	default:
		return fmt.Errorf("invalid mysql.driver '%s': must be '%s' or '%s'", c.MySQL.Driver, MySQLDriverCLI, MySQLDriverNative)
	}
	if c.Plugin.Slug == "" {
		return fmt.Errorf("plugin.slug must not be empty")
	}
	if c.WPCLI.URL == "" && c.WPCLI.Path == "" {
		return fmt.Errorf("either wpcli.url or wpcli.path must be set")
	}
	return nil
}

// ToolPath returns where wp-cli.phar lives: wpcli.path, or next to the binary.
func (c *Config) ToolPath() (string, error) {
	if c.WPCLI.Path != "" {
		return filepath.Abs(c.WPCLI.Path)
	}
	dir, err := util.ExecutableDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ToolFileName), nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Save writes cfg as YAML. The MySQL password is never written.
func Save(configFilePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configFilePath), 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(configFilePath), err)
	}
	if err := os.WriteFile(configFilePath, data, 0640); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFilePath, err)
	}
	util.Log.Debugf("Saved config to %s", configFilePath)
	return nil
}
