// Package log provides structured logging for recal components, backed
// by github.com/rs/zerolog.
//
// Loggers are obtained per component and carry key/value context:
//
//	logger := log.GetLoggerWithName("glm").With(
//	    log.ModelNameKey, "LogisticRegression",
//	)
//	logger.Info("Training started", log.SamplesKey, n)
//
// Output is JSON on stderr. The global level defaults to Info and can be
// raised to Debug with SetDebug(true).
package log

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Shared structured-logging keys. Using the same keys everywhere keeps
// the emitted JSON queryable across components.
const (
	ComponentKey  = "component"
	ModelNameKey  = "model"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	StageKey      = "stage"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	EventsKey     = "events"
	SeedKey       = "seed"
	IterationsKey = "iterations"
	DurationMsKey = "duration_ms"
	ErrorKey      = "error"
)

// Common operation and phase values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationSimulate = "simulate"
	OperationSplit    = "split"
	OperationEvaluate = "evaluate"

	PhaseTraining  = "training"
	PhaseInference = "inference"
)

// Logger is the logging interface exposed to recal components. Fields
// are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	// With returns a derived Logger carrying the given fields.
	With(keyvals ...interface{}) Logger
}

var (
	rootOnce sync.Once
	root     zerolog.Logger
)

func rootLogger() zerolog.Logger {
	rootOnce.Do(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		root = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
	return root
}

// SetDebug raises or restores the global log level.
func SetDebug(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// GetLogger returns the root logger.
func GetLogger() Logger {
	return &zeroLogger{l: rootLogger()}
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return &zeroLogger{l: rootLogger().With().Str(ComponentKey, name).Logger()}
}

type zeroLogger struct {
	l zerolog.Logger
}

func (z *zeroLogger) Debug(msg string, keyvals ...interface{}) {
	emit(z.l.Debug(), msg, keyvals)
}

func (z *zeroLogger) Info(msg string, keyvals ...interface{}) {
	emit(z.l.Info(), msg, keyvals)
}

func (z *zeroLogger) Warn(msg string, keyvals ...interface{}) {
	emit(z.l.Warn(), msg, keyvals)
}

func (z *zeroLogger) Error(msg string, keyvals ...interface{}) {
	emit(z.l.Error(), msg, keyvals)
}

func (z *zeroLogger) With(keyvals ...interface{}) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keyvals[i+1])
	}
	return &zeroLogger{l: ctx.Logger()}
}

func emit(ev *zerolog.Event, msg string, keyvals []interface{}) {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keyvals[i+1])
	}
	ev.Msg(msg)
}
