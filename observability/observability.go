package observability

import (
	"time"
)

// Logger is the logging contract used throughout the pipeline. Library
// packages accept a Logger and default to NopLogger; the binary wires a
// concrete backend.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a structured key/value pair attached to a log entry. Backends
// decide how to encode the value.
type Field struct {
	key string
	val interface{}
}

func (f Field) Key() string        { return f.key }
func (f Field) Value() interface{} { return f.val }

// String attaches a string value under key.
func String(key, value string) Field { return Field{key, value} }

// Int attaches an integer count under key.
func Int(key string, value int) Field { return Field{key, value} }

// Float64 attaches a floating-point value under key.
func Float64(key string, value float64) Field { return Field{key, value} }

// Duration attaches an elapsed time under key.
func Duration(key string, value time.Duration) Field { return Field{key, value} }

// Error attaches an error under key. A nil error is still recorded.
func Error(key string, err error) Field { return Field{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Standard metric names emitted by the pipeline.
const (
	MetricStageDuration = "pipeline.stage.duration"
	MetricStageOutputs  = "pipeline.stage.outputs"
	MetricRunDuration   = "pipeline.run.duration"
	MetricFilesFound    = "pipeline.discovery.files"
	MetricRegionCount   = "layout.regions.count"
)
