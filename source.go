package lambdamux

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Names of the built-in sources. Pass these as the source argument to
// Route when registering handlers for the corresponding event kind.
const (
	SourceS3  = "aws:s3"
	SourceSNS = "aws:sns"
	SourceSQS = "aws:sqs"
)

// Record is one wire record plus the matching key extracted from it.
type Record struct {
	Key string
	Raw json.RawMessage
}

// Source classifies and extracts one envelope kind.
//
// Sources are probed in a fixed order — the built-ins first (S3, SNS,
// SQS), then custom sources in the order added — and the first whose
// Match reports true claims the payload. The order is part of the
// contract: a minimal or malformed payload can structurally satisfy
// more than one source.
type Source interface {
	// Name identifies the source. Routes registered under this name
	// are eligible for the keys it extracts.
	Name() string

	// Match reports whether the payload structurally belongs to this
	// source.
	Match(v View) bool

	// Extract returns the envelope's records in payload order, each
	// tagged with its matching key.
	Extract(raw []byte) ([]Record, error)

	// Envelope re-wraps a group of raw records as a complete envelope
	// of this source's shape, so a handler's input type can mirror the
	// wire schema even when it receives a subset of the batch.
	Envelope(group []json.RawMessage) ([]byte, error)
}

// JSONSource builds a Source for a JSON envelope carrying an array of
// records. recordsPath locates the array within the envelope; keyPath
// locates the matching key within each record. Both use gjson syntax.
//
// Example:
//
//	src := lambdamux.JSONSource("billing",
//	    lambdamux.HasFields("Records.0.invoice"),
//	    "Records", "invoice.state")
func JSONSource(name string, disc Discriminator, recordsPath, keyPath string) Source {
	return &jsonSource{name: name, disc: disc, records: recordsPath, key: keyPath}
}

type jsonSource struct {
	name    string
	disc    Discriminator
	records string
	key     string
}

func (s *jsonSource) Name() string { return s.name }

// Match claims payloads passing the discriminator. An envelope whose
// record array exists but is empty carries no per-record structure to
// discriminate on, so the first source probed claims it; extraction
// then yields zero keys and dispatch reports a routing failure rather
// than a classification one.
func (s *jsonSource) Match(v View) bool {
	if s.disc(v) {
		return true
	}
	n, ok := v.Len(s.records)
	return ok && n == 0
}

func (s *jsonSource) Extract(raw []byte) ([]Record, error) {
	arr := gjson.GetBytes(raw, s.records)
	if !arr.IsArray() {
		return nil, fmt.Errorf("%s: %q is not an array", s.name, s.records)
	}

	var (
		out  []Record
		ferr error
	)
	arr.ForEach(func(_, rec gjson.Result) bool {
		key := rec.Get(s.key)
		if !key.Exists() {
			ferr = fmt.Errorf("%s: record missing key field %q", s.name, s.key)
			return false
		}
		out = append(out, Record{Key: key.String(), Raw: json.RawMessage(rec.Raw)})
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	return out, nil
}

func (s *jsonSource) Envelope(group []json.RawMessage) ([]byte, error) {
	env, err := sjson.SetRawBytes([]byte(`{}`), s.records, []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for _, rec := range group {
		// ".-1" appends past the end of the array.
		env, err = sjson.SetRawBytes(env, s.records+".-1", rec)
		if err != nil {
			return nil, err
		}
	}
	return env, nil
}

// S3 recognizes object-storage change notifications. The matching key
// is each record's event name, e.g. "ObjectCreated:Put". Handlers
// typically take events.S3Event from aws-lambda-go.
func S3() Source {
	return JSONSource(SourceS3, AllOf(
		FieldEquals("Records.0.eventSource", "aws:s3"),
		HasFields("Records.0.s3"),
	), "Records", "eventName")
}

// SNS recognizes pub/sub notifications. The matching key is the topic
// ARN carried by each record. Handlers typically take events.SNSEvent.
func SNS() Source {
	return JSONSource(SourceSNS, AllOf(
		FieldEquals("Records.0.EventSource", "aws:sns"),
		HasFields("Records.0.Sns.TopicArn"),
	), "Records", "Sns.TopicArn")
}

// SQS recognizes queue message batches. The matching key is each
// message's source queue ARN. Handlers typically take events.SQSEvent.
func SQS() Source {
	return JSONSource(SourceSQS,
		FieldEquals("Records.0.eventSource", "aws:sqs"),
		"Records", "eventSourceARN")
}

// WithSource appends a custom source after the built-in ones. Sources
// are probed in the order they were added.
func WithSource(s Source) Option {
	return func(c *config) {
		c.sources = append(c.sources, s)
	}
}

// WithSources replaces the source list entirely, built-ins included.
// Probe order follows the argument order.
func WithSources(sources ...Source) Option {
	return func(c *config) {
		c.sources = sources
	}
}
