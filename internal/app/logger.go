package app

import (
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. The interactive browser owns the
// terminal, so it logs JSON to cfg.File; subcommands log to stderr. verbose
// forces the debug level.
func NewLogger(cfg LogConfig, interactive, verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrap(err, "parse log level")
		}
		level = l
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var zcfg zap.Config
	if interactive {
		zcfg = zap.NewProductionConfig()
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
		if cfg.File == "" {
			zcfg.OutputPaths = []string{"storefront.log"}
			zcfg.ErrorOutputPaths = []string{"storefront.log"}
		}
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.DisableStacktrace = true
		zcfg.OutputPaths = []string{"stderr"}
		zcfg.ErrorOutputPaths = []string{"stderr"}
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	lg, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return lg, nil
}
