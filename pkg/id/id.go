package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. ULIDs sort by creation time, so run IDs in the
// fill journal list in the order the runs started.
func New() string {
	return ulid.Make().String()
}

// Time returns the creation time encoded in a ULID produced by New.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
