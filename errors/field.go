package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field marks err as caused by the named attribute of a validated value.
// Nested attributes use dot notation, for example "Signers.2" or
// "gateway.url". A nil err gives nil.
func Field(name string, err error) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &fieldError{parent: err, field: name}
}

// AppendField adds a field error to errs. Validation functions collect all
// problems of a wallet, request or configuration this way.
//
//   errs = errors.AppendField(errs, "Threshold", validateThreshold(w))
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err))
}

type fieldError struct {
	parent error
	field  string
}

func (err *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", err.field, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

// FieldErrors returns the errors attached to the named field. A field error
// nested inside a field of the same name is not reported twice.
func FieldErrors(err error, name string) []error {
	var res []error
	walkFields(err, func(f *fieldError) bool {
		if f.field != name {
			return false
		}
		res = append(res, f)
		return true
	})
	return res
}

// Fields returns the names of all invalid fields in err, in the order they
// were appended, each name once.
func Fields(err error) []string {
	var names []string
	seen := make(map[string]bool)
	walkFields(err, func(f *fieldError) bool {
		if !seen[f.field] {
			seen[f.field] = true
			names = append(names, f.field)
		}
		return false
	})
	return names
}

// walkFields visits field errors of the err tree, outermost first. When
// visit returns true the fields wrapped by that one are skipped.
func walkFields(err error, visit func(*fieldError) bool) {
	for !isNilErr(err) {
		if f, ok := err.(*fieldError); ok && visit(f) {
			return
		}
		switch e := err.(type) {
		case unpacker:
			for _, inner := range e.Unpack() {
				walkFields(inner, visit)
			}
			return
		case causer:
			err = e.Cause()
		default:
			return
		}
	}
}
