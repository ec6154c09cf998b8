// Package config decodes the proxy's JSON rule file, merges it with CLI
// overrides, and validates the result before the router or resolver pool
// ever see a [Rule].
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default listen host, port and log level, used when neither the config
// file nor a CLI flag sets them.  Port 0 requests an OS-assigned port.
const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 0
	DefaultLogLevel = "info"
)

// Config is the fully resolved set of proxy settings: where to listen, how
// loud to log, and the ordered rule list the router is built from.
type Config struct {
	Host     string   `json:"host"`
	Port     uint16   `json:"port"`
	LogLevel LogLevel `json:"log_level"`
	Rule     []Rule   `json:"rule"`
}

// Defaults returns a Config populated with the package defaults: the same
// result a config file that omits every optional field would produce, and
// what Main runs with when --config is absent.
func Defaults() Config {
	level, err := ParseLogLevel(DefaultLogLevel)
	if err != nil {
		// DefaultLogLevel is a package constant; a parse failure here is a
		// programmer error, not a runtime one.
		panic(err)
	}

	return Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		LogLevel: level,
	}
}

// Load reads and decodes the JSON config file at path.  Fields the file
// omits keep their package defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Defaults()
	if err = json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}

	return cfg, nil
}

// Overrides carries the CLI flag values that, when set, take priority over
// whatever the config file says — mirroring the host/port/log-level
// precedence the original CLI gave command-line flags over the file.
type Overrides struct {
	Host     *string
	Port     *uint16
	LogLevel *LogLevel
}

// Apply merges o into cfg, overwriting only the fields o actually sets.
func (o Overrides) Apply(cfg Config) Config {
	if o.Host != nil {
		cfg.Host = *o.Host
	}

	if o.Port != nil {
		cfg.Port = *o.Port
	}

	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}

	return cfg
}
