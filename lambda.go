package lambdamux

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
)

// Invoke satisfies the aws-lambda-go handler signature: one call per
// invocation, returning a serializable value or an error for the
// runtime to report.
//
// A single matched handler's response is returned as-is. When a
// heterogeneous batch fans out to several handlers, the responses come
// back as a slice in first-occurrence order of their keys.
//
// The context arrives from the runtime carrying the invocation deadline
// and request id; the mux passes it through untouched.
func (m *Mux[R]) Invoke(ctx context.Context, payload json.RawMessage) (any, error) {
	out, err := m.Dispatch(ctx, payload)
	if err != nil {
		return nil, err
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

// Start hands the mux to the Lambda runtime. It blocks for the life of
// the process; the runtime delivers one invocation at a time.
//
// Example:
//
//	b := lambdamux.New[Response]()
//	lambdamux.RouteFunc(b, lambdamux.SourceS3, "ObjectCreated:Put", handlePut)
//	b.Build().Start()
func (m *Mux[R]) Start() {
	lambda.Start(m.Invoke)
}

// LambdaHandler returns the mux as a lambda.Handler, for callers that
// wire the runtime themselves.
func (m *Mux[R]) LambdaHandler() lambda.Handler {
	return lambda.NewHandler(m.Invoke)
}
