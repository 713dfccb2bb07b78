/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/josephgoksu/ContextWing/internal/config"
)

const (
	configName = ".contextwing"
	envPrefix  = "CONTEXTWING"
)

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)                          // e.g., CONTEXTWING_VERBOSE
	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // memory.path -> CONTEXTWING_MEMORY_PATH

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		// Project config wins over the global one.
		if info, err := os.Stat(config.DirName); err == nil && info.IsDir() {
			viper.AddConfigPath(config.DirName)
		}
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		case cfgFileFlag != "" && os.IsNotExist(err):
			fmt.Fprintln(os.Stderr, "Error: specified config file not found:", cfgFileFlag)
		default:
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	} else if viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	mergeGlobalConfig()
}

// mergeGlobalConfig layers ~/.contextwing/config.yaml (written by
// "contextwing config set-provider") under the active config.
func mergeGlobalConfig() {
	dir, err := config.GetGlobalConfigDir()
	if err != nil {
		return
	}
	path := filepath.Join(dir, config.GlobalConfigFile)
	if path == viper.ConfigFileUsed() {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	global := viper.New()
	global.SetConfigFile(path)
	if err := global.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading global config:", path, "-", err)
		return
	}
	for _, key := range global.AllKeys() {
		viper.SetDefault(key, global.Get(key))
	}
}
