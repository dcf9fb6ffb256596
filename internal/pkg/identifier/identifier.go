// Package identifier converts external id strings into the numeric ids used
// by the store. Every id crossing the HTTP boundary goes through Parse, so a
// malformed id surfaces as a client error instead of leaking into a query.
package identifier

import (
	"errors"
	"strconv"
)

var ErrInvalidID = errors.New("id is not a valid identifier")

// Parse converts an external id string into a store id
func Parse(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// Format converts a store id back to its external string form
func Format(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
