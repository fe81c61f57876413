package lambdamux

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Handler processes one decoded event envelope and produces the mux's
// shared response type.
//
// Every handler bound to one mux agrees on the response type R; input
// types vary per route and are erased only inside the route table.
type Handler[E, R any] interface {
	Handle(ctx context.Context, event E) (R, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc[E, R any] func(ctx context.Context, event E) (R, error)

// Handle implements the Handler interface.
func (f HandlerFunc[E, R]) Handle(ctx context.Context, event E) (R, error) {
	return f(ctx, event)
}

// invoker wraps a typed handler behind a uniform calling convention so
// handlers with different input types share one table.
type invoker[R any] func(ctx context.Context, envelope json.RawMessage) (R, error)

// routeKey identifies a route. The same literal key could arise from
// two different sources, so lookup is keyed on both.
type routeKey struct {
	source string
	key    string
}

// Builder accumulates routes during the registration phase.
//
// Usage:
//  1. Create a builder with New
//  2. Register handlers with Route or RouteFunc
//  3. Freeze with Build
//  4. Hand the Mux to the Lambda runtime with Start
//
// A Builder is not safe for concurrent use and must not be touched
// after Build.
type Builder[R any] struct {
	sources []Source
	routes  map[routeKey]invoker[R]
	hooks   hooks
}

// New creates a Builder preloaded with the built-in sources in their
// fixed probe order: S3, then SNS, then SQS. Custom sources added with
// WithSource are probed after the built-ins.
//
// Example:
//
//	b := lambdamux.New[Response](
//	    lambdamux.WithLogger(log),
//	)
func New[R any](opts ...Option) *Builder[R] {
	cfg := config{sources: []Source{S3(), SNS(), SQS()}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder[R]{
		sources: cfg.sources,
		routes:  make(map[routeKey]invoker[R]),
		hooks:   cfg.hooks,
	}
}

// Route binds (source, key) to h and returns the builder for chaining.
// Registering the same pair twice overwrites the earlier handler.
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
//
// Example:
//
//	lambdamux.Route(b, lambdamux.SourceS3, "ObjectCreated:Put", &PutHandler{store: store})
func Route[E, R any](b *Builder[R], source, key string, h Handler[E, R]) *Builder[R] {
	b.routes[routeKey{source: source, key: key}] = func(ctx context.Context, envelope json.RawMessage) (R, error) {
		var event E
		if err := json.Unmarshal(envelope, &event); err != nil {
			var zero R
			return zero, &Error{Kind: ErrorKindUnmarshal, Err: err}
		}

		resp, err := h.Handle(ctx, event)
		if err != nil {
			var zero R
			return zero, &Error{Kind: ErrorKindHandler, Err: err}
		}
		return resp, nil
	}
	return b
}

// RouteFunc is a convenience function for registering a handler function.
//
// Example:
//
//	lambdamux.RouteFunc(b, lambdamux.SourceSQS, queueARN,
//	    func(ctx context.Context, evt events.SQSEvent) (Response, error) {
//	        return Response{}, nil
//	    })
func RouteFunc[E, R any](b *Builder[R], source, key string, fn func(ctx context.Context, event E) (R, error)) *Builder[R] {
	return Route(b, source, key, HandlerFunc[E, R](fn))
}

// Build freezes the route table into a Mux. The returned Mux is
// immutable and safe for unsynchronized concurrent dispatch; further
// registration is impossible by construction.
func (b *Builder[R]) Build() *Mux[R] {
	routes := make(map[routeKey]invoker[R], len(b.routes))
	for k, v := range b.routes {
		routes[k] = v
	}
	return &Mux[R]{
		sources: append([]Source(nil), b.sources...),
		routes:  routes,
		hooks:   b.hooks,
	}
}

// Mux dispatches invocation payloads to registered handlers. Create one
// with Builder.Build. A Mux holds no per-invocation state; every
// invocation is dispatched independently.
type Mux[R any] struct {
	sources []Source
	routes  map[routeKey]invoker[R]
	hooks   hooks
}

// group is the records sharing one matching key, in payload order.
type group struct {
	key     string
	records []json.RawMessage
}

// Dispatch routes one raw invocation payload.
//
// The flow:
//  1. Probe sources in fixed order; the first structural match wins.
//  2. Extract (key, record) pairs from the claimed envelope.
//  3. Bucket records by key, preserving first-occurrence order of keys
//     and payload order within each bucket. Each registered key gets
//     exactly one handler call covering its whole bucket.
//  4. Run the matched handlers concurrently and join on all of them.
//
// The returned responses follow bucket order, independent of completion
// order. Records whose key has no route are skipped, but if no record
// matched at all the dispatch fails with ErrorKindNoRoute. Any handler
// failure fails the whole invocation; there is no partial success.
//
// Dispatch imposes no timeout of its own; ctx carries the invocation
// deadline supplied by the runtime.
func (m *Mux[R]) Dispatch(ctx context.Context, raw []byte) ([]R, error) {
	view, err := NewView(raw)
	if err != nil {
		return nil, &Error{Kind: ErrorKindNoSource, Err: err}
	}

	src := m.matchSource(view)
	if src == nil {
		return nil, &Error{Kind: ErrorKindNoSource, Err: errors.New("payload matches no known envelope shape")}
	}

	records, err := src.Extract(raw)
	if err != nil {
		return nil, &Error{Kind: ErrorKindNoSource, Source: src.Name(), Err: err}
	}

	ctx = m.hooks.runOnMatch(ctx, src.Name())

	groups := bucketByKey(records)
	matched := make([]group, 0, len(groups))
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.key)
		if _, ok := m.routes[routeKey{source: src.Name(), key: g.key}]; ok {
			matched = append(matched, g)
		}
	}

	if len(matched) == 0 {
		e := &Error{Kind: ErrorKindNoRoute, Source: src.Name()}
		if len(keys) == 0 {
			e.Err = errors.New("envelope contains no records")
		} else {
			e.Key = strings.Join(keys, ", ")
			e.Err = errors.New("no handler registered for any extracted key")
		}
		return nil, e
	}

	results := make([]R, len(matched))
	eg, gctx := errgroup.WithContext(ctx)
	for i, g := range matched {
		call := m.routes[routeKey{source: src.Name(), key: g.key}]
		eg.Go(func() error {
			envelope, err := src.Envelope(g.records)
			if err != nil {
				return &Error{Kind: ErrorKindUnmarshal, Source: src.Name(), Key: g.key, Err: err}
			}

			m.hooks.runOnDispatch(gctx, src.Name(), g.key)

			start := time.Now()
			resp, err := call(gctx, envelope)
			if err != nil {
				m.hooks.runOnFailure(gctx, src.Name(), g.key, err, time.Since(start))
				return m.provenance(err, src.Name(), g.key)
			}

			m.hooks.runOnSuccess(gctx, src.Name(), g.key, time.Since(start))
			results[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// matchSource probes sources in order. Order is part of the public
// contract; see Source.
func (m *Mux[R]) matchSource(v View) Source {
	for _, s := range m.sources {
		if s.Match(v) {
			return s
		}
	}
	return nil
}

// provenance stamps source and key onto errors coming out of an
// invoker, which only knows about the payload it was handed.
func (m *Mux[R]) provenance(err error, source, key string) error {
	var derr *Error
	if errors.As(err, &derr) {
		if derr.Source == "" {
			derr.Source = source
		}
		if derr.Key == "" {
			derr.Key = key
		}
		return derr
	}
	return &Error{Kind: ErrorKindHandler, Source: source, Key: key, Err: err}
}

// bucketByKey groups records by matching key, preserving first-occurrence
// order of keys and payload order within each group.
func bucketByKey(records []Record) []group {
	var groups []group
	index := make(map[string]int, len(records))
	for _, r := range records {
		i, ok := index[r.Key]
		if !ok {
			i = len(groups)
			index[r.Key] = i
			groups = append(groups, group{key: r.Key})
		}
		groups[i].records = append(groups[i].records, r.Raw)
	}
	return groups
}
