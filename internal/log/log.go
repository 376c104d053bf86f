// Package log builds the zap loggers used across the monitor.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a sugared logger. debug selects the development config
// (console encoder, debug level); otherwise the production JSON config is used.
func New(debug bool) (*zap.SugaredLogger, error) {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %v", err)
	}

	return zapLogger.Sugar().With("service", "station-monitor"), nil
}

// Nop returns a logger that discards everything, for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
