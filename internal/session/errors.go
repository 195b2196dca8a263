package session

import (
	"errors"
	"fmt"
)

// ErrStrictMode marks an action whose locator matched more than one element.
var ErrStrictMode = errors.New("strict mode violation")

// NavigationError reports that an entry URL was unreachable or did not
// finish loading within the navigation timeout.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError reports that the control an action needed was absent
// (or never became actionable) when the action ran.
type ElementNotFoundError struct {
	Locator string
	Action  string
	// Reason is the last observed state, e.g. "0 matches" or "not visible".
	Reason string
	Err    error
}

func (e *ElementNotFoundError) Error() string {
	msg := fmt.Sprintf("%s: element not found: %s", e.Action, e.Locator)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// IndexOutOfRangeError reports a positional index beyond the live item count.
type IndexOutOfRangeError struct {
	Index int
	Count int
	What  string
}

func (e *IndexOutOfRangeError) Error() string {
	what := e.What
	if what == "" {
		what = "item"
	}
	return fmt.Sprintf("%s index %d out of range (have %d)", what, e.Index, e.Count)
}

// StrictModeError wraps ErrStrictMode with the offending locator.
func StrictModeError(locator string, count int) error {
	return fmt.Errorf("%w: %s resolved to %d elements", ErrStrictMode, locator, count)
}

// IsNotFound reports whether err is, or wraps, an *ElementNotFoundError.
func IsNotFound(err error) bool {
	var nf *ElementNotFoundError
	return errors.As(err, &nf)
}
