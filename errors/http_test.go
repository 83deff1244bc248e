package errors

import (
	stdlib "errors"
	"fmt"
	"testing"
)

func TestHTTPInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"nil error": {
			err:      nil,
			wantCode: SuccessCode,
			wantLog:  "",
		},
		"registered error": {
			err:      ErrNotFound,
			wantCode: ErrNotFound.code,
			wantLog:  "not found",
		},
		"wrapped registered error": {
			err:      Wrap(Wrap(ErrNotFound, "foo"), "bar"),
			wantCode: ErrNotFound.code,
			wantLog:  "bar: foo: not found",
		},
		"stdlib is generic message": {
			err:      stdlib.New("stdlib error"),
			wantCode: 1,
			wantLog:  "internal error",
		},
		"wrapped stdlib is only a generic message": {
			err:      Wrap(stdlib.New("stdlib error"), "wrapped"),
			wantCode: 1,
			wantLog:  "internal error",
		},
		"stdlib in debug mode is exposed": {
			err:      fmt.Errorf("cannot connect"),
			debug:    true,
			wantCode: 1,
			wantLog:  "cannot connect",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := HTTPInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want %d code, got %d", tc.wantCode, code)
			}
			if log != tc.wantLog {
				t.Errorf("want %q log, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if err := Redact(ErrPanic, false); ErrPanic.Is(err) {
		t.Error("reduct must not pass through panic error")
	}
	if err := Redact(ErrPanic, true); !ErrPanic.Is(err) {
		t.Error("reduct should pass through panic error in debug mode")
	}
	if err := Redact(ErrNotFound, false); !ErrNotFound.Is(err) {
		t.Error("registered error must be preserved")
	}

	serr := fmt.Errorf("stdlib error")
	if err := Redact(serr, false); err == serr {
		t.Error("stdlib error must be replaced")
	}
	if err := Redact(serr, true); err != serr {
		t.Error("stdlib error must not be replaced in debug mode")
	}
}
