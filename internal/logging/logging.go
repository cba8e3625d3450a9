package logging

// #region imports
import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// #endregion

// #region constructor

// New builds the process logger. Components take child loggers via Named so
// every line carries its component tag.
func New(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a discard logger for tests and optional components.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// #endregion constructor
