// Package lambdamux routes AWS Lambda invocation payloads to typed
// handlers.
//
// A Lambda function wired to more than one trigger receives opaque JSON
// whose shape depends on the event source that fired it. lambdamux
// classifies the payload, extracts a matching key from each record it
// carries, and dispatches to the handler registered for that key —
// letting one function serve S3 notifications, SNS topics, and SQS
// queues with ordinary typed handler code.
//
// # Quick Start
//
// All handlers on one mux share a response type; input types vary per
// route:
//
//	type Response struct {
//	    Body string `json:"body"`
//	}
//
//	func handlePut(ctx context.Context, evt events.S3Event) (Response, error) {
//	    for _, rec := range evt.Records {
//	        // rec.S3.Bucket.Name, rec.S3.Object.Key, ...
//	    }
//	    return Response{Body: "done"}, nil
//	}
//
// Build a route table, freeze it, and hand it to the runtime:
//
//	b := lambdamux.New[Response]()
//	lambdamux.RouteFunc(b, lambdamux.SourceS3, "ObjectCreated:Put", handlePut)
//	lambdamux.RouteFunc(b, lambdamux.SourceSQS, "arn:aws:sqs:us-west-2:123456789012:jobs", handleJobs)
//	b.Build().Start()
//
// # Matching Keys
//
// Each built-in source derives its key from a different record field:
//
//   - S3: the record's event name, e.g. "ObjectCreated:Put"
//   - SNS: the topic ARN
//   - SQS: the source queue ARN
//
// Keys are compared by exact string equality. The same literal could
// arise from two sources, so routes are keyed on (source, key) — the
// source name disambiguates. Registering the same pair twice
// overwrites; the last registration wins.
//
// # Classification
//
// The wire formats carry no discriminant field, so classification is
// purely structural: each source declares a Discriminator checking the
// presence and shape of fields it owns. Sources are probed in a fixed
// order — S3, SNS, SQS, then custom sources in the order added — and
// the first match claims the payload. The order is part of the
// contract, because a minimal payload can structurally satisfy more
// than one source.
//
// Discriminators compose:
//
//	lambdamux.AllOf(
//	    lambdamux.FieldEquals("Records.0.eventSource", "aws:s3"),
//	    lambdamux.HasFields("Records.0.s3"),
//	)
//
// # Batches
//
// An envelope may carry many records. Records are bucketed by key:
// records sharing a key are re-wrapped into one envelope of the same
// shape and handed to their handler in a single call, in payload order.
// Distinct keys fan out to their handlers concurrently; the responses
// come back in first-occurrence order of the keys, independent of
// completion order. A record whose key has no route is skipped, but if
// no record matches at all the invocation fails. Any handler failure
// fails the whole invocation — partial success is never reported, so
// the platform's retry policy sees the batch as a unit.
//
// # Type Erasure
//
// Route captures a deserialize-and-invoke closure per registration and
// stores it behind a uniform calling convention. The call site stays
// fully statically typed; no reflection is involved and no runtime type
// identifiers leak out. Route is a package-level generic function
// because Go methods cannot carry type parameters independent of the
// receiver.
//
// # Errors
//
// Every failure is a *Error carrying a kind plus the source and key it
// originated from:
//
//	_, err := m.Dispatch(ctx, raw)
//	var derr *lambdamux.Error
//	if errors.As(err, &derr) && derr.Kind == lambdamux.ErrorKindNoRoute {
//	    // routing misconfiguration, not a handler bug
//	}
//
// Failures surface to the runtime unrecovered: no retries, no
// suppression, no state carried into the next invocation.
//
// # Custom Sources
//
// Anything enveloping a record array routes the same way:
//
//	src := lambdamux.JSONSource("orders",
//	    lambdamux.HasFields("Records.0.order_id"),
//	    "Records", "status")
//
//	b := lambdamux.New[Response](lambdamux.WithSource(src))
//	lambdamux.RouteFunc(b, "orders", "shipped", handleShipped)
//
// Implement the Source interface directly for envelopes that need more
// than path-based extraction.
//
// # Observability
//
// The mux does no logging of its own. Hooks observe the dispatch flow:
//
//	lambdamux.New[Response](
//	    lambdamux.WithOnSuccess(func(ctx context.Context, source, key string, d time.Duration) {
//	        metrics.Timing("mux.success", d, "source:"+source)
//	    }),
//	)
//
// WithLogger installs a stock zerolog hook set that logs each step with
// the source, key, duration, and Lambda request id, and scopes a logger
// onto the context for handlers to use.
package lambdamux
