package lambdamux_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bjaus/lambdamux"
)

// Response is the one response type every handler on the mux agrees on.
type Response struct {
	Body string `json:"body"`
}

func Example() {
	b := lambdamux.New[Response]()

	lambdamux.RouteFunc(b, lambdamux.SourceS3, "ObjectCreated:Put",
		func(ctx context.Context, evt events.S3Event) (Response, error) {
			rec := evt.Records[0]
			return Response{Body: fmt.Sprintf("stored %s/%s", rec.S3.Bucket.Name, rec.S3.Object.Key)}, nil
		})

	m := b.Build()

	payload := []byte(`{
		"Records": [{
			"eventSource": "aws:s3",
			"eventName": "ObjectCreated:Put",
			"s3": {"bucket": {"name": "media"}, "object": {"key": "cat.png"}}
		}]
	}`)

	out, _ := m.Invoke(context.Background(), payload)
	fmt.Println(out.(Response).Body)

	// In a real function, hand the mux to the runtime instead:
	//
	//	m.Start()

	// Output:
	// stored media/cat.png
}

func Example_routeMiss() {
	b := lambdamux.New[Response]()
	lambdamux.RouteFunc(b, lambdamux.SourceS3, "ObjectCreated:Put",
		func(ctx context.Context, evt events.S3Event) (Response, error) {
			return Response{}, nil
		})

	payload := []byte(`{
		"Records": [{
			"eventSource": "aws:s3",
			"eventName": "ObjectCreated:Copy",
			"s3": {}
		}]
	}`)

	_, err := b.Build().Dispatch(context.Background(), payload)

	var derr *lambdamux.Error
	if errors.As(err, &derr) {
		fmt.Println(derr.Kind, derr.Key)
	}

	// Output:
	// no_route ObjectCreated:Copy
}

func Example_customSource() {
	src := lambdamux.JSONSource("orders",
		lambdamux.HasFields("Records.0.order_id"),
		"Records", "status")

	type orderBatch struct {
		Records []struct {
			OrderID string `json:"order_id"`
			Status  string `json:"status"`
		} `json:"Records"`
	}

	b := lambdamux.New[Response](lambdamux.WithSource(src))
	lambdamux.RouteFunc(b, "orders", "shipped",
		func(ctx context.Context, evt orderBatch) (Response, error) {
			return Response{Body: "shipped " + evt.Records[0].OrderID}, nil
		})

	payload := []byte(`{"Records": [{"order_id": "42", "status": "shipped"}]}`)
	out, _ := b.Build().Invoke(context.Background(), payload)
	fmt.Println(out.(Response).Body)

	// Output:
	// shipped 42
}
