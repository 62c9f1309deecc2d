package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a human-readable development logger for the "dev" environment
// and a JSON production logger otherwise.
func New(env, name string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if env == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	return log.With(zap.String("app", name)), nil
}
