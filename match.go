package lambdamux

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when an invocation payload is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// View is a read-only field accessor over a raw JSON payload. Sources
// use it to classify an envelope before anything is decoded. Paths use
// gjson syntax, e.g. "Records.0.eventSource".
type View struct {
	raw []byte
}

// NewView validates raw and wraps it for field queries.
func NewView(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return View{}, ErrInvalidJSON
	}
	return View{raw: raw}, nil
}

// Has reports whether a value exists at path.
func (v View) Has(path string) bool {
	return gjson.GetBytes(v.raw, path).Exists()
}

// String returns the string value at path, or false if the path is
// missing or does not hold a string.
func (v View) String(path string) (string, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

// Len returns the number of elements in the array at path, or false if
// the path is missing or does not hold an array.
func (v View) Len(path string) (int, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.IsArray() {
		return 0, false
	}
	return int(r.Get("#").Int()), true
}

// Discriminator decides whether a source should claim a payload.
// Classification is purely structural: the wire formats carry no type
// tag, so discriminators check the presence and shape of known fields.
// They are cheap compared to full extraction.
type Discriminator func(v View) bool

// HasFields matches when every path exists.
func HasFields(paths ...string) Discriminator {
	return func(v View) bool {
		for _, p := range paths {
			if !v.Has(p) {
				return false
			}
		}
		return true
	}
}

// FieldEquals matches when path exists and holds the given string.
func FieldEquals(path, value string) Discriminator {
	return func(v View) bool {
		s, ok := v.String(path)
		return ok && s == value
	}
}

// AllOf matches when every discriminator matches.
func AllOf(ds ...Discriminator) Discriminator {
	return func(v View) bool {
		for _, d := range ds {
			if !d(v) {
				return false
			}
		}
		return true
	}
}

// AnyOf matches when at least one discriminator matches.
func AnyOf(ds ...Discriminator) Discriminator {
	return func(v View) bool {
		for _, d := range ds {
			if d(v) {
				return true
			}
		}
		return false
	}
}
