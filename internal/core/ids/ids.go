// Package ids builds the prefixed identifiers used for errors, rollback
// points, operations and sessions: <prefix>_<epochMillis>_<suffix>.
package ids

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 9

const (
	PrefixError     = "err"
	PrefixRollback  = "rb"
	PrefixOperation = "op"
	PrefixSession   = "session"
)

// New returns prefix_<millis>_<9 lowercase hex chars>.
func New(prefix string, now time.Time) string {
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + Suffix()
}

// Suffix returns a random lowercase alphanumeric string.
func Suffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:suffixLen]
}
