package lncfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

const (
	// DefaultConfigFilename is the name of the config file read from the
	// app's data directory.
	DefaultConfigFilename = "lnpay.conf"

	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultMaxLogFiles is the number of rotated log files kept.
	DefaultMaxLogFiles = 3

	// DefaultMaxLogFileSize is the size in MB at which the log file is
	// rotated.
	DefaultMaxLogFileSize = 10

	defaultLogFilename = "lnpay.log"
)

var (
	// DefaultAppDir is the default data directory of lnpay.
	DefaultAppDir = defaultAppDir()
)

// Config is the file based configuration of lnpay.
type Config struct {
	Node *Node `group:"Node" namespace:"node"`

	Protocol *ExperimentalProtocol `group:"Protocol" namespace:"protocol"`

	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}, or <subsystem>=<level> pairs separated by commas"`

	LogDir string `long:"logdir" description:"Directory to write rotated logs to, logs are only written to stderr if unset"`

	MaxLogFiles int `long:"maxlogfiles" description:"Maximum rotated log files to keep (0 for no rotation)"`

	MaxLogFileSize int `long:"maxlogfilesize" description:"Maximum log file size in MB"`

	MetricsListen string `long:"metricslisten" description:"The host:port to serve prometheus metrics on"`
}

// DefaultConfig returns a config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Node:           DefaultNode(),
		Protocol:       &ExperimentalProtocol{},
		DebugLevel:     DefaultLogLevel,
		MaxLogFiles:    DefaultMaxLogFiles,
		MaxLogFileSize: DefaultMaxLogFileSize,
	}
}

// LoadConfig reads the ini formatted config file at the path provided over
// the default config. A missing file is not an error if the path is the
// default path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := path
	if configPath == "" {
		configPath = filepath.Join(DefaultAppDir, DefaultConfigFilename)
	}
	configPath = CleanAndExpandPath(configPath)

	parser := flags.NewParser(cfg, flags.IgnoreUnknown)
	err := flags.NewIniParser(parser).ParseFile(configPath)

	switch {
	case errors.Is(err, os.ErrNotExist) && path == "":

	case err != nil:
		return nil, fmt.Errorf("load config %v: %w", configPath, err)
	}

	cfg.Node.Normalize()
	cfg.LogDir = CleanAndExpandPath(cfg.LogDir)

	return cfg, nil
}

// LogFile returns the path of the log file, or an empty string if logs are
// not written to disk.
func (c *Config) LogFile() string {
	if c.LogDir == "" {
		return ""
	}

	return filepath.Join(c.LogDir, defaultLogFilename)
}

func defaultAppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lnpay"
	}

	return filepath.Join(home, ".lnpay")
}
