package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/carlakc/lnpay/lncfg"
	"github.com/carlakc/lnpay/lnnode"
	"github.com/carlakc/lnpay/paysub"
	"github.com/carlakc/lnpay/routing"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem is the logging code of the command itself.
const Subsystem = "LNPY"

// log is the command's logger, it is replaced once logging is set up.
var log = btclog.Disabled

// subsystemLoggers maps each subsystem to the function that sets its logger.
var subsystemLoggers = map[string]func(btclog.Logger){
	Subsystem:         func(l btclog.Logger) { log = l },
	paysub.Subsystem:  paysub.UseLogger,
	lnnode.Subsystem:  lnnode.UseLogger,
	routing.Subsystem: routing.UseLogger,
}

// setupLogging creates a logger for each subsystem, writing to stderr and
// to a rotated log file if the config has a log directory. The function
// returned closes the log file.
func setupLogging(cfg *lncfg.Config) (func(), error) {
	var (
		writer  io.Writer = os.Stderr
		closeFn           = func() {}
	)

	if logFile := cfg.LogFile(); logFile != "" {
		fileWriter, closeRotator, err := newRotator(
			logFile, cfg.MaxLogFileSize, cfg.MaxLogFiles,
		)
		if err != nil {
			return nil, err
		}

		writer = io.MultiWriter(os.Stderr, fileWriter)
		closeFn = closeRotator
	}

	backend := btclog.NewBackend(writer)
	loggers := make(map[string]btclog.Logger, len(subsystemLoggers))
	for subsystem, useLogger := range subsystemLoggers {
		logger := backend.Logger(subsystem)
		loggers[subsystem] = logger
		useLogger(logger)
	}

	if err := setLogLevels(loggers, cfg.DebugLevel); err != nil {
		closeFn()
		return nil, err
	}

	return closeFn, nil
}

// newRotator creates a log file writer that rotates the file once it grows
// beyond the size provided.
func newRotator(logFile string, maxSizeMB, maxFiles int) (io.Writer, func(),
	error) {

	if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	r, err := rotator.New(logFile, int64(maxSizeMB*1024), false, maxFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("create file rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		_ = r.Run(pr)
	}()

	closeFn := func() {
		_ = pw.Close()
		_ = r.Close()
	}

	return pw, closeFn, nil
}

// setLogLevels applies a debug level string, which is either a single level
// for all subsystems or a comma separated list of <subsystem>=<level> pairs.
func setLogLevels(loggers map[string]btclog.Logger, debugLevel string) error {
	if !strings.Contains(debugLevel, "=") {
		level, ok := btclog.LevelFromString(debugLevel)
		if !ok {
			return fmt.Errorf("invalid debug level: %v", debugLevel)
		}

		for _, logger := range loggers {
			logger.SetLevel(level)
		}

		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return fmt.Errorf("invalid subsystem level pair: %v",
				pair)
		}

		logger, ok := loggers[fields[0]]
		if !ok {
			return fmt.Errorf("unknown subsystem: %v", fields[0])
		}

		level, ok := btclog.LevelFromString(fields[1])
		if !ok {
			return fmt.Errorf("invalid debug level: %v", fields[1])
		}

		logger.SetLevel(level)
	}

	return nil
}
