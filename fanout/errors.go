package fanout

import (
	"errors"
	"fmt"
	"strings"
)

// ItemError wraps the failure of a single item together with the cursor
// that was processing it. Every failure reported by [ForEach] is an
// ItemError so callers can attribute it to a specific input position.
type ItemError struct {
	Cursor CursorInfo
	Index  int // position of the item in the input slice
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d on cursor %d failed: %v", e.Index, e.Cursor.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// AggregateError is returned by [ForEach] when one or more items failed.
// It carries every observed failure, ordered by item index.
type AggregateError struct {
	Errs []*ItemError
}

func (e *AggregateError) Error() string {
	if len(e.Errs) == 1 {
		return "fanout: " + e.Errs[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "fanout: %d items failed", len(e.Errs))
	for _, ie := range e.Errs {
		b.WriteString("\n\t")
		b.WriteString(ie.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to [errors.Is] and [errors.As].
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errs))
	for i, ie := range e.Errs {
		errs[i] = ie
	}
	return errs
}

// IsItemError reports whether err carries a failure attributed to an item.
func IsItemError(err error) bool {
	var ie *ItemError
	return errors.As(err, &ie)
}

// ItemOf returns the input position of the first failed item found in err.
// For a [ForEach] result that is the lowest failing index.
func ItemOf(err error) (int, bool) {
	var ie *ItemError
	if !errors.As(err, &ie) {
		return 0, false
	}
	return ie.Index, true
}

// CauseOf strips the item attribution from err and returns what the action
// itself returned or panicked with. Errors without attribution, nil
// included, come back unchanged.
func CauseOf(err error) error {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Err
	}
	return err
}

// AllItemErrors flattens err into the item failures it contains, in the
// order they are found. It descends through fmt.Errorf wrapping, errors.Join
// and [AggregateError], so a wrapped ForEach result yields every failure.
func AllItemErrors(err error) []*ItemError {
	return appendItemErrors(nil, err)
}

func appendItemErrors(dst []*ItemError, err error) []*ItemError {
	switch e := err.(type) {
	case nil:
		return dst
	case *ItemError:
		return append(dst, e)
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			dst = appendItemErrors(dst, sub)
		}
		return dst
	case interface{ Unwrap() error }:
		return appendItemErrors(dst, e.Unwrap())
	}
	return dst
}
