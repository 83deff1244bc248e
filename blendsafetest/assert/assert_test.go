package assert

import (
	"testing"

	"github.com/iov-one/blendsafe/errors"
)

func TestIsErr(t *testing.T) {
	cases := map[string]struct {
		want     error
		got      error
		wantFail bool
	}{
		"both nil":           {},
		"unexpected error":   {got: errors.ErrDatabase, wantFail: true},
		"missing error":      {want: errors.ErrDatabase, wantFail: true},
		"wrapped kind":       {want: errors.ErrEmpty, got: errors.Wrap(errors.ErrEmpty, "wallet id")},
		"different kind":     {want: errors.ErrEmpty, got: errors.ErrInput, wantFail: true},
		"kind inside fields": {want: errors.ErrInput, got: errors.Field("Signers", errors.ErrInput)},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			rec := &recorder{TB: t}
			IsErr(rec, tc.want, tc.got)
			if rec.failed != tc.wantFail {
				t.Fatalf("want failed=%v, got %v", tc.wantFail, rec.failed)
			}
		})
	}
}

func TestFieldError(t *testing.T) {
	invalid := errors.Append(
		errors.Field("ID", errors.ErrEmpty),
		errors.Field("Queue", errors.ErrModel),
		errors.Field("Queue", errors.ErrModel),
	)

	cases := map[string]struct {
		field    string
		want     *errors.Error
		wantFail bool
	}{
		"matching kind":       {field: "ID", want: errors.ErrEmpty},
		"other kind":          {field: "ID", want: errors.ErrInput, wantFail: true},
		"valid field":         {field: "Signers"},
		"unexpected error":    {field: "ID", wantFail: true},
		"missing error":       {field: "Signers", want: errors.ErrEmpty, wantFail: true},
		"two errors in field": {field: "Queue", want: errors.ErrModel, wantFail: true},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			rec := &recorder{TB: t}
			FieldError(rec, invalid, tc.field, tc.want)
			if rec.failed != tc.wantFail {
				t.Fatalf("want failed=%v, got %v", tc.wantFail, rec.failed)
			}
		})
	}
}

func TestInvalidFields(t *testing.T) {
	err := errors.Append(
		errors.Field("http", errors.ErrEmpty),
		errors.Field("gateway.url", errors.ErrEmpty),
	)

	rec := &recorder{TB: t}
	InvalidFields(rec, err, "http", "gateway.url")
	InvalidFields(rec, nil)
	if rec.failed {
		t.Fatal("matching fields reported as failure")
	}

	InvalidFields(rec, err, "gateway.url", "http")
	if !rec.failed {
		t.Fatal("field order not checked")
	}
}

// recorder records failures instead of stopping the test.
type recorder struct {
	testing.TB
	failed bool
}

func (r *recorder) Fatalf(format string, args ...interface{}) {
	r.TB.Logf(format, args...)
	r.failed = true
}
