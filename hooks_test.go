package lambdamux

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type HooksSuite struct {
	suite.Suite
}

func TestHooksSuite(t *testing.T) {
	suite.Run(t, new(HooksSuite))
}

func (s *HooksSuite) dispatch(payload string, opts ...Option) error {
	b := New[testResponse](opts...)
	RouteFunc(b, SourceS3, "ObjectCreated:Put", func(ctx context.Context, evt events.S3Event) (testResponse, error) {
		return testResponse{Body: "put"}, nil
	})
	RouteFunc(b, SourceS3, "ObjectCreated:Copy", func(ctx context.Context, evt events.S3Event) (testResponse, error) {
		return testResponse{}, errors.New("copy failed")
	})
	_, err := b.Build().Dispatch(context.Background(), []byte(payload))
	return err
}

func (s *HooksSuite) TestOnMatchEnrichesContext() {
	type ctxKey struct{}

	var fromHandler any
	b := New[testResponse](WithOnMatch(func(ctx context.Context, source string) context.Context {
		return context.WithValue(ctx, ctxKey{}, "enriched:"+source)
	}))
	RouteFunc(b, SourceS3, "ObjectCreated:Put", func(ctx context.Context, evt events.S3Event) (testResponse, error) {
		fromHandler = ctx.Value(ctxKey{})
		return testResponse{}, nil
	})

	_, err := b.Build().Dispatch(context.Background(), []byte(s3PutPayload))
	s.Require().NoError(err)
	s.Assert().Equal("enriched:aws:s3", fromHandler)
}

func (s *HooksSuite) TestOnMatchChainsInOrder() {
	var order []string
	err := s.dispatch(s3PutPayload,
		WithOnMatch(func(ctx context.Context, source string) context.Context {
			order = append(order, "first")
			return ctx
		}),
		WithOnMatch(func(ctx context.Context, source string) context.Context {
			order = append(order, "second")
			return ctx
		}),
	)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"first", "second"}, order)
}

func (s *HooksSuite) TestOnDispatchAndOnSuccess() {
	var dispatched, succeeded []string
	err := s.dispatch(s3PutPayload,
		WithOnDispatch(func(ctx context.Context, source, key string) {
			dispatched = append(dispatched, source+"/"+key)
		}),
		WithOnSuccess(func(ctx context.Context, source, key string, d time.Duration) {
			succeeded = append(succeeded, source+"/"+key)
		}),
		WithOnFailure(func(ctx context.Context, source, key string, err error, d time.Duration) {
			s.Fail("failure hook must not fire on success")
		}),
	)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"aws:s3/ObjectCreated:Put"}, dispatched)
	s.Assert().Equal([]string{"aws:s3/ObjectCreated:Put"}, succeeded)
}

func (s *HooksSuite) TestOnFailureObservesButCannotSuppress() {
	copyPayload := `{"Records": [{"eventSource": "aws:s3", "eventName": "ObjectCreated:Copy", "s3": {}}]}`

	var observed error
	err := s.dispatch(copyPayload,
		WithOnFailure(func(ctx context.Context, source, key string, err error, d time.Duration) {
			observed = err
		}),
	)
	s.Require().Error(err, "failure still surfaces to the caller")
	s.Assert().ErrorContains(observed, "copy failed")
}

func (s *HooksSuite) TestWithLoggerWritesDispatchFlow() {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	err := s.dispatch(s3PutPayload, WithLogger(log))
	s.Require().NoError(err)

	out := buf.String()
	s.Assert().Contains(out, `"source":"aws:s3"`)
	s.Assert().Contains(out, `"key":"ObjectCreated:Put"`)
	s.Assert().Contains(out, "handler succeeded")
}

func (s *HooksSuite) TestWithLoggerScopesLoggerOntoContext() {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	b := New[testResponse](WithLogger(log))
	RouteFunc(b, SourceS3, "ObjectCreated:Put", func(ctx context.Context, evt events.S3Event) (testResponse, error) {
		zerolog.Ctx(ctx).Info().Msg("inside handler")
		return testResponse{}, nil
	})

	_, err := b.Build().Dispatch(context.Background(), []byte(s3PutPayload))
	s.Require().NoError(err)
	s.Assert().Contains(buf.String(), "inside handler")
}
