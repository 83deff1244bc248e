package assert

import (
	"reflect"
	"testing"

	"github.com/iov-one/blendsafe/errors"
)

// IsErr fails the test unless got is want or, for a registered error kind,
// want.Is(got) holds. A nil want expects a nil got.
func IsErr(t testing.TB, want, got error) {
	t.Helper()

	if want == nil {
		if got != nil {
			t.Fatalf("want no error, got %+v", got)
		}
		return
	}
	if kind, ok := want.(*errors.Error); ok && kind.Is(got) {
		return
	}
	if want == got {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}

// FieldError checks the error reported for a single field of a validated
// wallet, request or configuration. Use nil as want to ensure the field is
// valid. Exactly one error is expected for an invalid field.
func FieldError(t testing.TB, err error, field string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, field)
	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("field %q: want no error, got %q", field, errs)
		}
		return
	}
	switch len(errs) {
	case 0:
		t.Fatalf("field %q: want %q, got no error", field, want)
	case 1:
		if !want.Is(errs[0]) {
			t.Fatalf("field %q: want %q, got %q", field, want, errs[0])
		}
	default:
		t.Fatalf("field %q: want one error, got %d: %q", field, len(errs), errs)
	}
}

// InvalidFields fails the test unless err reports exactly the given fields,
// in that order.
func InvalidFields(t testing.TB, err error, fields ...string) {
	t.Helper()

	got := errors.Fields(err)
	if len(got) == 0 && len(fields) == 0 {
		return
	}
	if !reflect.DeepEqual(fields, got) {
		t.Fatalf("invalid fields: want %q, got %q (%v)", fields, got, err)
	}
}
