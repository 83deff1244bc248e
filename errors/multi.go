package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If given error implements unpacker interface, it is flattened. All
// contained errors are extracted and returned as a single collection.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if u, ok := e.(unpacker); ok {
			res = append(res, u.Unpack()...)
		} else {
			res = append(res, e)
		}
	}

	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// unpacker is implemented by errors that group several others.
type unpacker interface {
	Unpack() []error
}

// multiErr represents a set of errors. It does not carry a stack trace
// itself, each wrapped error carries its own.
type multiErr []error

var _ unpacker = (multiErr)(nil)

func (errs multiErr) Unpack() []error {
	return errs
}

func (errs multiErr) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(errs), strings.Join(msgs, "; "))
}
