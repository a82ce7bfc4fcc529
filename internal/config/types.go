package config

// Config is the tool configuration read from ~/.bludgeon/config.yaml,
// BLUDGEON_* environment variables and command-line flags.
type Config struct {
	Debug    bool         `mapstructure:"debug"    yaml:"debug"`
	StateDir string       `mapstructure:"stateDir" yaml:"stateDir"`
	WPCLI    WPCLIConfig  `mapstructure:"wpcli"    yaml:"wpcli"`
	Plugin   PluginConfig `mapstructure:"plugin"   yaml:"plugin"`
	MySQL    MySQLConfig  `mapstructure:"mysql"    yaml:"mysql"`
}

// WPCLIConfig controls where WP-CLI comes from and how it is run.
type WPCLIConfig struct {
	URL          string `mapstructure:"url"          yaml:"url"`
	Path         string `mapstructure:"path"         yaml:"path,omitempty"`
	EnvFile      string `mapstructure:"envFile"      yaml:"envFile,omitempty"`
	CheckUpdates bool   `mapstructure:"checkUpdates" yaml:"checkUpdates"`
	ReleaseRepo  string `mapstructure:"releaseRepo"  yaml:"releaseRepo"`
}

type PluginConfig struct {
	Slug string `mapstructure:"slug" yaml:"slug"`
}

// MySQLConfig describes how the plugin settings row gets written.
type MySQLConfig struct {
	Driver        string `mapstructure:"driver"        yaml:"driver"`
	Binary        string `mapstructure:"binary"        yaml:"binary"`
	User          string `mapstructure:"user"          yaml:"user"`
	Database      string `mapstructure:"database"      yaml:"database,omitempty"`
	Address       string `mapstructure:"address"       yaml:"address,omitempty"`
	ConfigFile    string `mapstructure:"configFile"    yaml:"configFile"`
	ConfigSection string `mapstructure:"configSection" yaml:"configSection"`
	Password      string `mapstructure:"password"      yaml:"-"`
	Payload       string `mapstructure:"payload"       yaml:"payload,omitempty"`
}
