package config

import (
	"errors"
	"fmt"
	"os"

	"bludgeon/internal/util"

	"gopkg.in/ini.v1"
)

// ErrNoSecret means neither the explicit value nor the MySQL option file
// produced a password.
var ErrNoSecret = errors.New("no MySQL root password could be loaded")

// ResolveSecret prefers explicit and otherwise reads section/password from the
// INI-style option file at path. A missing file is not an error.
func ResolveSecret(explicit, path, section string) (string, error) {
	if explicit != "" {
		util.Log.Info("Using MySQL root password from command line")
		return explicit, nil
	}

	realPath, err := util.ExpandPath(path)
	if err != nil {
		return "", err
	}
	if realPath != "" {
		secret, err := readOptionFile(realPath, section)
		if err != nil {
			return "", err
		}
		if secret != "" {
			return secret, nil
		}
	}
	return "", ErrNoSecret
}

func readOptionFile(path, section string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			util.Log.Debugf("MySQL config file %s does not exist", path)
			return "", nil
		}
		return "", fmt.Errorf("failed to stat MySQL config file %s: %w", path, err)
	}

	util.Log.Infof("Using MySQL config file from %s", path)
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:          true,
		SkipUnrecognizableLines:   true,
		IgnoreInlineComment:       true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL config file %s: %w", path, err)
	}

	sec, err := file.GetSection(section)
	if err != nil {
		util.Log.Warnf("MySQL config file %s has no [%s] section", path, section)
		return "", nil
	}
	return sec.Key(DefaultMySQLSecretKey).String(), nil
}
