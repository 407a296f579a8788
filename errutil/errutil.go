// Package errutil provides the internal assertion and error-folding helpers
// shared across the dictionary's construction and load paths.
package errutil

import (
	"errors"
	"fmt"
)

const debug = false

// Error kinds surfaced to callers of Build/Deserialize per spec §7.
// KeyAbsent and IdOutOfRange are not represented here: the former is a
// normal "absent" query result, the latter is caller-bug undefined
// behaviour guarded only by BugOn in debug builds.
var (
	// ErrInputNotSorted is returned by Build when the Strict validation
	// pass finds the input keys are not sorted and unique.
	ErrInputNotSorted = errors.New("xcdat: input keys are not sorted and unique")
	// ErrInputTooLarge is returned by Build when the resulting trie would
	// need more node ids than the configured id width can address.
	ErrInputTooLarge = errors.New("xcdat: input key set too large for id width")
	// ErrImageCorrupt is returned by Deserialize when the serialized image
	// fails a header or length-consistency check.
	ErrImageCorrupt = errors.New("xcdat: serialized image is corrupt")
)

// First returns the first non-nil error among errs, or nil if all are nil.
func First(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// FatalIf panics with a FATAL-prefixed message if err is non-nil.
// Its one caller is the double-array builder's initial one-slot
// allocation, which cannot fail; array exhaustion during construction and
// malformed images during load are returned as errors instead.
func FatalIf(err error) {
	if err == nil {
		return
	}
	panic(fmt.Sprintf("FATAL: %v", err))
}

// Bug panics with the given message when debug assertions are enabled.
func Bug(format string, msg ...any) {
	if debug {
		panic(fmt.Sprintf(format, msg...))
	}
}

// BugOn panics with the given message when cond is true and debug
// assertions are enabled.
func BugOn(cond bool, format string, msg ...any) {
	if debug && cond {
		Bug(format, msg...)
	}
}

// BugOnNotEq panics when a != b and debug assertions are enabled.
func BugOnNotEq(a, b any) {
	if a == b {
		return
	}
	Bug("BUG: a != b, %v != %v", a, b)
}
