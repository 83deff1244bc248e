package blendsafe

import (
	"context"
	"fmt"

	"github.com/tendermint/tendermint/libs/log"
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

type contextKey int // local to the blendsafe package

const (
	contextKeyLogger contextKey = iota
	contextKeyCaller
)

// WithLogger sets the logger for this context.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx context.Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithCaller sets the authenticated identity of the request. This must be
// called at most once per request, by the authentication layer.
func WithCaller(ctx context.Context, caller Identity) context.Context {
	if current, ok := GetCaller(ctx); ok {
		panic(fmt.Sprintf("caller already set to %q", current))
	}
	return context.WithValue(ctx, contextKeyCaller, caller)
}

// GetCaller returns the authenticated identity of the request, if any.
func GetCaller(ctx context.Context) (Identity, bool) {
	val, ok := ctx.Value(contextKeyCaller).(Identity)
	return val, ok
}
