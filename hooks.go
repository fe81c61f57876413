package lambdamux

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
)

// OnMatchFunc is called once per invocation, after a source claims the
// payload. Use it to enrich the context with logging fields or trace
// spans; the returned context is used for the rest of the invocation,
// including every handler call it fans out to.
type OnMatchFunc func(ctx context.Context, source string) context.Context

// OnDispatchFunc is called just before each handler executes.
type OnDispatchFunc func(ctx context.Context, source, key string)

// OnSuccessFunc is called after a handler completes successfully.
type OnSuccessFunc func(ctx context.Context, source, key string, duration time.Duration)

// OnFailureFunc is called after a handler fails, including when its
// payload could not be decoded. Hooks observe failures; they cannot
// suppress them — every failure still surfaces to the runtime.
type OnFailureFunc func(ctx context.Context, source, key string, err error, duration time.Duration)

// hooks holds all configured hook functions.
type hooks struct {
	onMatch    []OnMatchFunc
	onDispatch []OnDispatchFunc
	onSuccess  []OnSuccessFunc
	onFailure  []OnFailureFunc
}

func (h hooks) runOnMatch(ctx context.Context, source string) context.Context {
	for _, fn := range h.onMatch {
		ctx = fn(ctx, source)
	}
	return ctx
}

func (h hooks) runOnDispatch(ctx context.Context, source, key string) {
	for _, fn := range h.onDispatch {
		fn(ctx, source, key)
	}
}

func (h hooks) runOnSuccess(ctx context.Context, source, key string, duration time.Duration) {
	for _, fn := range h.onSuccess {
		fn(ctx, source, key, duration)
	}
}

func (h hooks) runOnFailure(ctx context.Context, source, key string, err error, duration time.Duration) {
	for _, fn := range h.onFailure {
		fn(ctx, source, key, err, duration)
	}
}

// config collects builder settings that do not depend on the response
// type.
type config struct {
	sources []Source
	hooks   hooks
}

// Option configures a Builder.
type Option func(*config)

// WithOnMatch adds a hook called once per invocation after a source
// claims the payload. Multiple hooks are called in order, with context
// chaining through each.
//
// Example:
//
//	lambdamux.WithOnMatch(func(ctx context.Context, source string) context.Context {
//	    return logx.WithCtx(ctx, slog.String("source", source))
//	})
func WithOnMatch(fn OnMatchFunc) Option {
	return func(c *config) {
		c.hooks.onMatch = append(c.hooks.onMatch, fn)
	}
}

// WithOnDispatch adds a hook called just before each handler executes.
// Multiple hooks are called in order.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(c *config) {
		c.hooks.onDispatch = append(c.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after a handler completes.
// Multiple hooks are called in order.
//
// Example:
//
//	lambdamux.WithOnSuccess(func(ctx context.Context, source, key string, d time.Duration) {
//	    metrics.Timing("mux.success", d, "source:"+source)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(c *config) {
		c.hooks.onSuccess = append(c.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after a handler fails.
// Multiple hooks are called in order.
func WithOnFailure(fn OnFailureFunc) Option {
	return func(c *config) {
		c.hooks.onFailure = append(c.hooks.onFailure, fn)
	}
}

// WithLogger installs a stock hook set that logs the dispatch flow and
// attaches a scoped logger to the context, so handlers can pick it up
// with zerolog.Ctx. The Lambda request id is included when the runtime
// put one on the context.
//
// Example:
//
//	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	b := lambdamux.New[Response](lambdamux.WithLogger(log))
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.hooks.onMatch = append(c.hooks.onMatch, func(ctx context.Context, source string) context.Context {
			lg := log.With().Str("source", source)
			if lc, ok := lambdacontext.FromContext(ctx); ok {
				lg = lg.Str("request_id", lc.AwsRequestID)
			}
			scoped := lg.Logger()
			scoped.Debug().Msg("source matched")
			return scoped.WithContext(ctx)
		})
		c.hooks.onDispatch = append(c.hooks.onDispatch, func(ctx context.Context, source, key string) {
			zerolog.Ctx(ctx).Debug().Str("key", key).Msg("dispatching")
		})
		c.hooks.onSuccess = append(c.hooks.onSuccess, func(ctx context.Context, source, key string, d time.Duration) {
			zerolog.Ctx(ctx).Info().Str("key", key).Dur("duration", d).Msg("handler succeeded")
		})
		c.hooks.onFailure = append(c.hooks.onFailure, func(ctx context.Context, source, key string, err error, d time.Duration) {
			zerolog.Ctx(ctx).Error().Str("key", key).Dur("duration", d).Err(err).Msg("handler failed")
		})
	}
}
