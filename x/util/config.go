package util

import (
	"os"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/mjtimeline/core"
)

const DefaultConfigPath = "/etc/mjtimeline/config.yaml"

// Config is the mjtimeline daemon configuration
type Config struct {
	Server Server           `yaml:"server"`
	Ledger core.ConfigInput `yaml:"ledger"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

// Load loads the configuration from the given path
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open configuration file")
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(c)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration file")
	}

	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}

	return nil
}

// ConfigPath returns MJTIMELINE_CONFIG or the default location
func ConfigPath() string {
	if path := os.Getenv("MJTIMELINE_CONFIG"); path != "" {
		return path
	}
	return DefaultConfigPath
}
