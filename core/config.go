package core

import (
	"time"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultPollInterval   = time.Second
	defaultAddressPrefix  = "iota"
)

// ConfigInput is the ledger section of the yaml configuration
type ConfigInput struct {
	Endpoint       string `yaml:"endpoint"`
	Network        string `yaml:"network"`
	AddressPrefix  string `yaml:"addressPrefix"`
	PrivateKey     string `yaml:"privateKey"`
	RequestTimeout int    `yaml:"requestTimeout"` // seconds
	PollInterval   int    `yaml:"pollInterval"`   // milliseconds
}

// Config is the resolved runtime configuration shared by the services
type Config struct {
	Endpoint       string
	Network        string
	AddressPrefix  string
	PrivateKey     string
	RequestTimeout time.Duration
	PollInterval   time.Duration
}

func SetupConfig(base ConfigInput) Config {

	timeout := defaultRequestTimeout
	if base.RequestTimeout > 0 {
		timeout = time.Duration(base.RequestTimeout) * time.Second
	}

	interval := defaultPollInterval
	if base.PollInterval > 0 {
		interval = time.Duration(base.PollInterval) * time.Millisecond
	}

	prefix := base.AddressPrefix
	if prefix == "" {
		prefix = defaultAddressPrefix
	}

	return Config{
		Endpoint:       base.Endpoint,
		Network:        base.Network,
		AddressPrefix:  prefix,
		PrivateKey:     base.PrivateKey,
		RequestTimeout: timeout,
		PollInterval:   interval,
	}
}
