package logger

import (
	"context"

	pcontext "github.com/o3de-mps/mpsexport/pkg/context"
)

// LoggerContext extends Logger with methods that pull run metadata from ctx.
type LoggerContext interface {
	Logger
	InfoContext(ctx context.Context, message string, fields ...Field)
	ErrorContext(ctx context.Context, message string, fields ...Field)
	WarnContext(ctx context.Context, message string, fields ...Field)
	DebugContext(ctx context.Context, message string, fields ...Field)
	SuccessContext(ctx context.Context, message string, fields ...Field)
}

var _ LoggerContext = (*StageLogger)(nil)

// InfoContext logs an info message with run metadata
func (l *StageLogger) InfoContext(ctx context.Context, message string, fields ...Field) {
	l.Info(message, append(l.extractContextFields(ctx), fields...)...)
}

// ErrorContext logs an error message with run metadata
func (l *StageLogger) ErrorContext(ctx context.Context, message string, fields ...Field) {
	l.Error(message, append(l.extractContextFields(ctx), fields...)...)
}

// WarnContext logs a warning message with run metadata
func (l *StageLogger) WarnContext(ctx context.Context, message string, fields ...Field) {
	l.Warn(message, append(l.extractContextFields(ctx), fields...)...)
}

// DebugContext logs a debug message with run metadata
func (l *StageLogger) DebugContext(ctx context.Context, message string, fields ...Field) {
	l.Debug(message, append(l.extractContextFields(ctx), fields...)...)
}

// SuccessContext logs a success message with run metadata
func (l *StageLogger) SuccessContext(ctx context.Context, message string, fields ...Field) {
	l.Success(message, append(l.extractContextFields(ctx), fields...)...)
}

func (l *StageLogger) extractContextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}

	var fields []Field
	if pcontext.IsKnownRun(ctx) {
		fields = append(fields, WithField("run_id", pcontext.GetRunID(ctx)))
	}
	if project := pcontext.GetProject(ctx); project != "" {
		fields = append(fields, WithField("project", project))
	}
	// An explicit WithStage tag takes precedence over the context stage.
	if l.stageName == "" && pcontext.IsKnownStage(ctx) {
		fields = append(fields, WithField("stage", pcontext.GetStage(ctx)))
	}
	if d := pcontext.GetDuration(ctx); d > 0 {
		fields = append(fields, WithField("duration_ms", d.Milliseconds()))
	}
	return fields
}

// WithContext returns a logger that attaches ctx metadata to every entry
func WithContext(ctx context.Context, logger Logger) Logger {
	if ctx == nil || logger == nil {
		return logger
	}
	return &contextualLogger{ctx: ctx, logger: logger}
}

type contextualLogger struct {
	ctx    context.Context
	logger Logger
}

func (cl *contextualLogger) Info(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.InfoContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Info(message, fields...)
	}
}

func (cl *contextualLogger) Error(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.ErrorContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Error(message, fields...)
	}
}

func (cl *contextualLogger) Warn(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.WarnContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Warn(message, fields...)
	}
}

func (cl *contextualLogger) Debug(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.DebugContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Debug(message, fields...)
	}
}

func (cl *contextualLogger) Success(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.SuccessContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Success(message, fields...)
	}
}

func (cl *contextualLogger) WithStage(stage string) Logger {
	return &contextualLogger{
		ctx:    cl.ctx,
		logger: cl.logger.WithStage(stage),
	}
}
