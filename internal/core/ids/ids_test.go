package ids

import (
	"regexp"
	"testing"
	"time"
)

func TestNew_Format(t *testing.T) {
	now := time.UnixMilli(1735689600123)
	pattern := regexp.MustCompile(`^err_1735689600123_[a-z0-9]{9}$`)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New(PrefixError, now)
		if !pattern.MatchString(id) {
			t.Fatalf("id %q does not match %s", id, pattern)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
