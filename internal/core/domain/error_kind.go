package domain

import (
	"fmt"
)

// ErrorKind is the closed set of failure classes the recovery core understands.
// Per-kind tables elsewhere are arrays indexed by ErrorKind and are checked
// against MaxErrorKind at compile time.
type ErrorKind uint8

const (
	// User input
	KindUserInput ErrorKind = iota + 1
	KindInvalidDateTime
	KindInvalidDuration
	KindMissingRequiredField

	// System and internal
	KindSystem
	KindSession
	KindDataCorruption
	KindConfiguration

	// External APIs
	KindExternalAPI
	KindGoogleCalendar
	KindCloudflareAI
	KindWeatherAPI
	KindTrafficAPI

	// Network and connectivity
	KindNetwork
	KindTimeout
	KindConnection

	// Authentication and authorization
	KindAuthentication
	KindAuthorization
	KindTokenExpired
	KindInvalidCredentials

	// Rate limiting and quota
	KindRateLimit
	KindQuotaExceeded

	// Data validation
	KindDataValidation
	KindSchemaValidation
	KindBusinessRuleViolation

	// Conflicts and constraints
	KindScheduleConflict
	KindResourceConflict
	KindConstraintViolation

	errorKindSentinel
)

// MaxErrorKind is the highest valid ErrorKind.
const MaxErrorKind = errorKindSentinel - 1

// ErrorCategory groups kinds for reporting.
type ErrorCategory string

const (
	CategoryUserInput      ErrorCategory = "user_input"
	CategorySystem         ErrorCategory = "system"
	CategoryExternalAPI    ErrorCategory = "external_api"
	CategoryNetwork        ErrorCategory = "network"
	CategoryAuth           ErrorCategory = "auth"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryDataValidation ErrorCategory = "data_validation"
	CategoryConflict       ErrorCategory = "conflict"
)

type kindInfo struct {
	name     string
	category ErrorCategory
}

var kindTable = [...]kindInfo{
	KindUserInput:            {"user_input_error", CategoryUserInput},
	KindInvalidDateTime:      {"invalid_date_time", CategoryUserInput},
	KindInvalidDuration:      {"invalid_duration", CategoryUserInput},
	KindMissingRequiredField: {"missing_required_field", CategoryUserInput},

	KindSystem:         {"system_error", CategorySystem},
	KindSession:        {"session_error", CategorySystem},
	KindDataCorruption: {"data_corruption", CategorySystem},
	KindConfiguration:  {"configuration_error", CategorySystem},

	KindExternalAPI:    {"external_api_error", CategoryExternalAPI},
	KindGoogleCalendar: {"google_calendar_error", CategoryExternalAPI},
	KindCloudflareAI:   {"cloudflare_ai_error", CategoryExternalAPI},
	KindWeatherAPI:     {"weather_api_error", CategoryExternalAPI},
	KindTrafficAPI:     {"traffic_api_error", CategoryExternalAPI},

	KindNetwork:    {"network_error", CategoryNetwork},
	KindTimeout:    {"timeout_error", CategoryNetwork},
	KindConnection: {"connection_error", CategoryNetwork},

	KindAuthentication:     {"auth_error", CategoryAuth},
	KindAuthorization:      {"authorization_error", CategoryAuth},
	KindTokenExpired:       {"token_expired", CategoryAuth},
	KindInvalidCredentials: {"invalid_credentials", CategoryAuth},

	KindRateLimit:     {"rate_limit_error", CategoryRateLimit},
	KindQuotaExceeded: {"quota_exceeded", CategoryRateLimit},

	KindDataValidation:        {"validation_error", CategoryDataValidation},
	KindSchemaValidation:      {"schema_validation_error", CategoryDataValidation},
	KindBusinessRuleViolation: {"business_rule_violation", CategoryDataValidation},

	KindScheduleConflict:    {"schedule_conflict", CategoryConflict},
	KindResourceConflict:    {"resource_conflict", CategoryConflict},
	KindConstraintViolation: {"constraint_violation", CategoryConflict},
}

// Both directions: the table must have exactly one slot per kind (plus the unused zero slot).
var (
	_ [len(kindTable) - int(errorKindSentinel)]struct{}
	_ [int(errorKindSentinel) - len(kindTable)]struct{}
)

var kindByName = func() map[string]ErrorKind {
	m := make(map[string]ErrorKind, len(kindTable))
	for k := ErrorKind(1); k <= MaxErrorKind; k++ {
		m[kindTable[k].name] = k
	}
	return m
}()

// AllErrorKinds returns every valid kind in declaration order.
func AllErrorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, int(MaxErrorKind))
	for k := ErrorKind(1); k <= MaxErrorKind; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k belongs to the closed set.
func (k ErrorKind) Valid() bool {
	return k >= 1 && k <= MaxErrorKind
}

func (k ErrorKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("error_kind(%d)", uint8(k))
	}
	return kindTable[k].name
}

// Category returns the group the kind belongs to.
func (k ErrorKind) Category() ErrorCategory {
	if !k.Valid() {
		return CategorySystem
	}
	return kindTable[k].category
}

// ParseErrorKind resolves a wire name such as "network_error".
func ParseErrorKind(s string) (ErrorKind, error) {
	k, ok := kindByName[s]
	if !ok {
		return 0, fmt.Errorf("unknown error kind %q", s)
	}
	return k, nil
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid error kind %d", uint8(k))
	}
	return []byte(kindTable[k].name), nil
}

func (k *ErrorKind) UnmarshalText(b []byte) error {
	parsed, err := ParseErrorKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
