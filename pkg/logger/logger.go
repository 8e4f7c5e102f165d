// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
)

type Sugared = *zap.SugaredLogger

func New(env string) Sugared {
	var z *zap.Logger
	if env == "prod" {
		z, _ = zap.NewProduction()
	} else {
		z, _ = zap.NewDevelopment()
	}
	if z == nil {
		z = zap.NewNop()
	}
	return z.Sugar().With("app", "trebodeluxe")
}

// Nop is used by tests and tools that must not write logs.
func Nop() Sugared { return zap.NewNop().Sugar() }
