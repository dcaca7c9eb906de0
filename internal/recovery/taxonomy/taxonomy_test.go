package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/schedrecovery/internal/core/domain"
)

// =============================================================================
// Table completeness
// =============================================================================

func TestTables_EveryKindPopulated(t *testing.T) {
	valid := map[domain.Severity]bool{
		domain.SeverityLow:      true,
		domain.SeverityMedium:   true,
		domain.SeverityHigh:     true,
		domain.SeverityCritical: true,
	}
	for _, k := range domain.AllErrorKinds() {
		assert.True(t, valid[severityTable[k]], "severity row missing for %s", k)
		assert.NotEmpty(t, templateTable[k].Title, "template title missing for %s", k)
		assert.NotEmpty(t, templateTable[k].Message, "template message missing for %s", k)
	}
	assert.Len(t, domain.AllErrorKinds(), 28)
}

func TestSeverityOf_Groups(t *testing.T) {
	cases := map[domain.ErrorKind]domain.Severity{
		domain.KindUserInput:        domain.SeverityLow,
		domain.KindInvalidDateTime:  domain.SeverityLow,
		domain.KindNetwork:          domain.SeverityMedium,
		domain.KindGoogleCalendar:   domain.SeverityMedium,
		domain.KindAuthentication:   domain.SeverityHigh,
		domain.KindSystem:           domain.SeverityHigh,
		domain.KindConfiguration:    domain.SeverityHigh,
		domain.KindDataCorruption:   domain.SeverityCritical,
		domain.KindScheduleConflict: domain.SeverityLow,
	}
	for kind, want := range cases {
		assert.Equal(t, want, SeverityOf(kind), kind.String())
	}
	assert.Equal(t, domain.SeverityMedium, SeverityOf(0))
	assert.Equal(t, domain.SeverityMedium, SeverityOf(domain.MaxErrorKind+1))
}

func TestDefaultSuggestions_ReturnsCopy(t *testing.T) {
	a := DefaultSuggestions(domain.KindNetwork)
	require.Len(t, a, 2)
	a[0].EstimatedSuccessRate = 0

	b := DefaultSuggestions(domain.KindNetwork)
	assert.Equal(t, 0.7, b[0].EstimatedSuccessRate)
	assert.Empty(t, DefaultSuggestions(domain.KindDataCorruption))
}

// =============================================================================
// New
// =============================================================================

func TestNew_Fields(t *testing.T) {
	now := time.UnixMilli(1735689600000)
	rec := NewAt(now, domain.KindNetwork, "dial tcp: refused", domain.ErrorContext{UserID: "u1"}, nil)

	assert.Regexp(t, regexp.MustCompile(`^err_\d+_[a-z0-9]+$`), rec.ID)
	assert.Equal(t, "NETWORK_ERROR_1735689600000", rec.Code)
	assert.Equal(t, domain.SeverityMedium, rec.Severity)
	assert.True(t, rec.Recoverable)
	assert.True(t, rec.Retryable)
	assert.Equal(t, "unknown", rec.Context.OperationType)
	assert.Equal(t, "unknown", rec.Context.OperationStep)
	assert.Equal(t, now, rec.Context.Timestamp)
	assert.NotEmpty(t, rec.UserMessage)
}

func TestNew_EveryKindHasUserMessage(t *testing.T) {
	for _, k := range domain.AllErrorKinds() {
		rec := New(k, "details", domain.ErrorContext{}, nil)
		assert.NotEmpty(t, rec.UserMessage, k.String())
		assert.NotContains(t, rec.UserMessage, "{details}")
		assert.NotContains(t, rec.UserMessage, "{conflictDetails}")
		assert.Equal(t, SeverityOf(k), rec.Severity)
	}
}

func TestNew_RetryableOnlyWithRetrySuggestion(t *testing.T) {
	assert.False(t, New(domain.KindUserInput, "x", domain.ErrorContext{}, nil).Retryable)
	assert.True(t, New(domain.KindUserInput, "x", domain.ErrorContext{}, nil).Recoverable)
	assert.True(t, New(domain.KindGoogleCalendar, "x", domain.ErrorContext{}, nil).Retryable)

	rec := New(domain.KindTimeout, "x", domain.ErrorContext{}, nil)
	assert.False(t, rec.Retryable)
	assert.False(t, rec.Recoverable)
}

func TestNew_InvalidKindFallsBack(t *testing.T) {
	rec := New(0, "boom", domain.ErrorContext{}, nil)
	assert.Equal(t, "Something went wrong: boom", rec.UserMessage)
	assert.True(t, strings.HasPrefix(rec.Code, "UNKNOWN_"))
}

func TestNew_ScheduleConflictInterpolation(t *testing.T) {
	msg := UserMessage(domain.KindScheduleConflict, "Team sync 10:00-11:00")
	assert.Contains(t, msg, "Team sync 10:00-11:00")
}

func TestNew_IDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := New(domain.KindSystem, "x", domain.ErrorContext{}, nil).ID
		require.False(t, seen[id])
		seen[id] = true
	}
}

// =============================================================================
// Error chain behaviour
// =============================================================================

func TestErrorRecord_IsAndUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	rec := New(domain.KindNetwork, "send failed", domain.ErrorContext{}, cause)
	wrapped := fmt.Errorf("handler: %w", rec)

	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, domain.KindErr(domain.KindNetwork))
	assert.NotErrorIs(t, wrapped, domain.KindErr(domain.KindTimeout))

	kind, ok := domain.KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, domain.KindNetwork, kind)
}

func TestClassify(t *testing.T) {
	ec := domain.ErrorContext{SessionID: "s1"}

	assert.Nil(t, Classify(nil, domain.KindSystem, ec))

	rec := Classify(context.DeadlineExceeded, domain.KindGoogleCalendar, ec)
	assert.Equal(t, domain.KindTimeout, rec.Kind)

	rec = Classify(errors.New("403 from calendar"), domain.KindGoogleCalendar, ec)
	assert.Equal(t, domain.KindGoogleCalendar, rec.Kind)
	assert.Equal(t, "s1", rec.Context.SessionID)

	existing := New(domain.KindQuotaExceeded, "quota", ec, nil)
	assert.Same(t, existing, Classify(fmt.Errorf("wrap: %w", existing), domain.KindSystem, ec))

	rec = Classify(errors.New("x"), 0, ec)
	assert.Equal(t, domain.KindSystem, rec.Kind)
}

func TestDescribe(t *testing.T) {
	g := Describe(domain.KindDataCorruption, "checksum mismatch")
	assert.Equal(t, ToneCritical, g.Tone)
	assert.True(t, g.ContactSupport)
	assert.Contains(t, g.Description, "checksum mismatch")

	g = Describe(domain.KindUserInput, "bad")
	assert.Equal(t, ToneInfo, g.Tone)
	assert.False(t, g.ContactSupport)
}

func TestErrorKind_TextRoundTrip(t *testing.T) {
	for _, k := range domain.AllErrorKinds() {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got domain.ErrorKind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}
	_, err := domain.ParseErrorKind("no_such_kind")
	assert.Error(t, err)

	k, err := domain.ParseErrorKind("auth_error")
	require.NoError(t, err)
	assert.Equal(t, domain.KindAuthentication, k)
}
