package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// errEmptyBody and errTrailingData are structural failures found before
// field validation runs.
var (
	errEmptyBody    = errors.New("request body is empty")
	errTrailingData = errors.New("request body must contain a single JSON object")
)

// bodyDecoder reads size-capped JSON bodies and validates them against
// their struct tags.
type bodyDecoder struct {
	maxBytes int64
	validate *validator.Validate
}

func newBodyDecoder(maxBytes int64) *bodyDecoder {
	v := validator.New()
	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &bodyDecoder{maxBytes: maxBytes, validate: v}
}

// decode reads r's body into dst and validates it. Unknown fields are
// ignored.
func (d *bodyDecoder) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, d.maxBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errTrailingData
	}
	return d.validate.Struct(dst)
}

// fieldErrors converts a decode error into response detail entries.
func fieldErrors(err error) []FieldError {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		verrs     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verrs):
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return out
	case errors.As(err, &typeErr):
		return []FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", jsonKind(typeErr.Type), typeErr.Value),
		}}
	case errors.As(err, &syntaxErr):
		return []FieldError{{Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return []FieldError{{Message: "malformed JSON: unexpected end of input"}}
	default:
		return []FieldError{{Message: err.Error()}}
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// jsonKind names the JSON type a Go type decodes from.
func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return t.Kind().String()
	}
}
