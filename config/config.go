package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/peterbokunet/greyd/log"
)

var ErrFileNotExists = errors.New("config file not found, set env variable CONFIG to path config file")
var defaultConfigPath = "./config/config.yaml"

func MustLoadConfig(cfg interface{}) {
	if err := LoadConfig(cfg); err != nil {
		panic(err)
	}
}

// LoadConfig fills cfg from a yaml file and the environment.
//
// The file is taken from the CONFIG env variable, falling back to
// ./config/config.yaml; a co-located .local variant is merged on top when
// present, and environment variables win over both. A missing file is not
// fatal: the environment alone is used. Keys the file carries that cfg
// does not know are logged as warnings, never silently ignored.
func LoadConfig(cfg interface{}) error {
	// cfg only point to struct
	configFile, exists := os.LookupEnv("CONFIG")
	if !exists {
		currentDir, _ := os.Getwd()
		defaultConfig := path.Join(currentDir, defaultConfigPath)
		_, err := os.Stat(defaultConfig)
		switch {
		case err == nil:
			configFile = defaultConfig
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("undefined error with config file:  %w ", err)
		default:
			log.Warnf("config file not found, reading environment only")
			return cleanenv.ReadEnv(cfg)
		}
	}
	if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	warnUnknownKeys(configFile, cfg)

	localConfigFile := configFile[:len(configFile)-len(path.Ext(configFile))] + ".local" + path.Ext(configFile)
	_, err := os.Stat(localConfigFile)
	if err == nil {
		if err := cleanenv.ReadConfig(localConfigFile, cfg); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		warnUnknownKeys(localConfigFile, cfg)
	}

	return cleanenv.ReadEnv(cfg)
}

func warnUnknownKeys(configFile string, cfg interface{}) {
	for _, key := range UnknownKeys(configFile, cfg) {
		log.Warnf("config %s: unrecognized key: %s", configFile, key)
	}
}
