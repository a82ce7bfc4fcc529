package config

const (
	DefaultConfigDirName  = ".bludgeon"
	GlobalConfigFileName  = "config.yaml"
	HistoryFileName       = "history.jsonl"
	ToolFileName          = "wp-cli.phar"
	EnvPrefix             = "BLUDGEON"
	DefaultToolURL        = "https://raw.githubusercontent.com/wp-cli/builds/gh-pages/phar/wp-cli.phar"
	DefaultReleaseRepo    = "wp-cli/wp-cli"
	DefaultPluginSlug     = "disable-comments"
	DefaultMySQLBinary    = "mysql"
	DefaultMySQLUser      = "root"
	DefaultMySQLConfig    = "~/.my.cnf"
	DefaultMySQLSection   = "mysql"
	DefaultMySQLSecretKey = "password"

	MySQLDriverCLI    = "cli"
	MySQLDriverNative = "native"
)
