// Package logger wraps logrus with context-scoped structured fields,
// following the teacher's internal/logger call sites (logger.Infof,
// logger.Errorf, logger.CloneContext) used throughout chat_pipline.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// Fields is a structured logging payload.
type Fields = logrus.Fields

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{})
}

// CloneContext attaches a fresh per-request logging entry to ctx so that
// downstream With() calls accumulate fields without leaking across requests.
func CloneContext(ctx context.Context) context.Context {
	entry := logrus.NewEntry(base)
	return context.WithValue(ctx, ctxKey{}, entry)
}

func entryFrom(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(base)
}

// With returns a context whose logging entry carries the given fields in
// addition to any already attached.
func With(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, entryFrom(ctx).WithFields(fields))
}

func Infof(ctx context.Context, format string, args ...any)  { entryFrom(ctx).Infof(format, args...) }
func Warnf(ctx context.Context, format string, args ...any)  { entryFrom(ctx).Warnf(format, args...) }
func Errorf(ctx context.Context, format string, args ...any) { entryFrom(ctx).Errorf(format, args...) }
func Debugf(ctx context.Context, format string, args ...any) { entryFrom(ctx).Debugf(format, args...) }

// WithFields logs one structured entry at the given level.
func WithFields(ctx context.Context, level logrus.Level, msg string, fields Fields) {
	entryFrom(ctx).WithFields(fields).Log(level, msg)
}
