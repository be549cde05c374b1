package cmd

import (
	"fmt"

	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/priority-scheduler/pkg/errors"
)

// initLogger installs the global zap logger used through zap.S().Named(...).
func initLogger(format, level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return srvErrors.NewConfigurationError("log-level", "%v", err)
	}

	var zcfg zap.Config
	switch format {
	case "json":
		zcfg = zap.NewProductionConfig()
	case "console":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return srvErrors.NewConfigurationError("log-format", "%q is not one of console, json", format)
	}
	zcfg.Level = lvl

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}
