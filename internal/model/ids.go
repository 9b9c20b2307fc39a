package model

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// TempIDPrefix marks ids minted locally for records the server has not seen yet.
const TempIDPrefix = "temp-"

// NewTempID returns a unique, sortable temporary id.
func NewTempID() string {
	return TempIDPrefix + ulid.Make().String()
}

// IsTempID reports whether id was minted by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
