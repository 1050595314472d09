package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type config struct {
	Server         string // relay address host:port; empty means discover
	BoardID        string
	DisplayName    string
	HostPort       int
	MaxRetries     int
	BackoffSeconds int
	Discover       bool
	DefaultColor   string // "#aarrggbb"
	DefaultSize    float64
}

const configFile = "config.toml"

func defaultConfig() config {
	return config{
		Server:         "",
		BoardID:        "default",
		DisplayName:    "",
		HostPort:       8888,
		MaxRetries:     5,
		BackoffSeconds: 2,
		Discover:       true,
		DefaultColor:   "#ff000000",
		DefaultSize:    3,
	}
}

func initializeConfigIfNot() {
	confDir := configDir()
	ok, err := exists(confDir)
	if err != nil {
		log.Fatalf("Couldn't check if config directory exists: %v", err)
	}
	if !ok {
		if err := os.MkdirAll(confDir, 0700); err != nil {
			log.Fatalf("Couldn't create config directory: %v", err)
		}
	}
	tomlfile := filepath.Join(confDir, configFile)
	ok, err = exists(tomlfile)
	if err != nil {
		log.Fatalf("Couldn't check if config file exists: %v", err)
	}
	if !ok {
		log.Println("Initializing config")
		conf := defaultConfig()
		writeConfig(&conf)
	}
}

func readConfig() *config {
	f := filepath.Join(configDir(), configFile)
	conf := defaultConfig()
	if _, err := toml.DecodeFile(f, &conf); err != nil {
		log.Fatalf("Couldn't read config file: %v", err)
	}
	return &conf
}

func writeConfig(conf *config) {
	f := filepath.Join(configDir(), configFile)
	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(conf); err != nil {
		log.Fatalf("Couldn't write config file: %v", err)
	}
	os.WriteFile(f, buffer.Bytes(), 0644)
}

func configDir() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "liveboard")
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func xdgOrFallback(xdg string, fallback string) string {
	dir := os.Getenv(xdg)
	if dir != "" {
		if ok, err := exists(dir); ok && err == nil {
			return dir
		}
	}
	return fallback
}
