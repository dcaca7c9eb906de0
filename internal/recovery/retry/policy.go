// Package retry holds the per-kind retry policies, the backoff computation
// and the in-memory attempt counter.
package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/recovery/taxonomy"
)

// ErrPolicyLocked is returned when overriding the policy of a CRITICAL kind.
var ErrPolicyLocked = errors.New("retry policy of critical kinds cannot be overridden")

// Policy configures automatic retries for one ErrorKind.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool
}

// Retryable reports whether the policy allows any automatic retry.
func (p Policy) Retryable() bool {
	return p.MaxAttempts > 0
}

func (p Policy) validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts == 0 {
		return nil
	}
	if p.BaseDelay <= 0 || p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("invalid delays base=%s max=%s", p.BaseDelay, p.MaxDelay)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	}
	return nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

var noRetry = Policy{Multiplier: 1}

var defaultPolicies = [...]Policy{
	domain.KindNetwork:        {3, ms(1000), ms(10000), 2, true},
	domain.KindTimeout:        {2, ms(2000), ms(8000), 2, true},
	domain.KindGoogleCalendar: {3, ms(1500), ms(12000), 2.5, true},
	domain.KindRateLimit:      {2, ms(5000), ms(30000), 3, false},
	domain.KindSystem:         {1, ms(1000), ms(5000), 2, true},
	domain.KindExternalAPI:    {2, ms(1000), ms(8000), 2, true},
	domain.KindCloudflareAI:   {2, ms(1000), ms(6000), 2, true},
	domain.KindWeatherAPI:     {1, ms(2000), ms(5000), 2, true},
	domain.KindTrafficAPI:     {1, ms(2000), ms(5000), 2, true},
	domain.KindConnection:     {2, ms(1000), ms(8000), 2, true},
	domain.KindAuthentication: {1, ms(1000), ms(3000), 1.5, false},
	domain.KindTokenExpired:   {1, ms(500), ms(2000), 2, false},

	domain.KindUserInput:             noRetry,
	domain.KindInvalidDateTime:       noRetry,
	domain.KindInvalidDuration:       noRetry,
	domain.KindMissingRequiredField:  noRetry,
	domain.KindSession:               noRetry,
	domain.KindDataCorruption:        noRetry,
	domain.KindConfiguration:         noRetry,
	domain.KindAuthorization:         noRetry,
	domain.KindInvalidCredentials:    noRetry,
	domain.KindQuotaExceeded:         noRetry,
	domain.KindDataValidation:        noRetry,
	domain.KindSchemaValidation:      noRetry,
	domain.KindBusinessRuleViolation: noRetry,
	domain.KindScheduleConflict:      noRetry,
	domain.KindResourceConflict:      noRetry,
	domain.KindConstraintViolation:   noRetry,
}

var (
	_ [len(defaultPolicies) - int(domain.MaxErrorKind) - 1]struct{}
	_ [int(domain.MaxErrorKind) + 1 - len(defaultPolicies)]struct{}
)

// Table maps every ErrorKind to its Policy.
type Table struct {
	policies [len(defaultPolicies)]Policy
}

// DefaultTable returns a fresh copy of the built-in policies.
func DefaultTable() *Table {
	return &Table{policies: defaultPolicies}
}

// Policy returns the policy for kind. Unknown kinds are not retryable.
func (t *Table) Policy(kind domain.ErrorKind) Policy {
	if !kind.Valid() {
		return noRetry
	}
	return t.policies[kind]
}

// Override replaces the policy for kind.
func (t *Table) Override(kind domain.ErrorKind, p Policy) error {
	if !kind.Valid() {
		return fmt.Errorf("override: invalid error kind %d", uint8(kind))
	}
	if taxonomy.SeverityOf(kind) == domain.SeverityCritical {
		return fmt.Errorf("override %s: %w", kind, ErrPolicyLocked)
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("override %s: %w", kind, err)
	}
	t.policies[kind] = p
	return nil
}
