package taxonomy

import "github.com/vietddude/schedrecovery/internal/core/domain"

var suggestionTable = [...][]domain.Suggestion{
	domain.KindUserInput: {
		{
			Kind:                 domain.RecoveryManualFix,
			Description:          "guide the user to the expected input format",
			UserDescription:      "Please check what you entered and try again in the expected format.",
			Risk:                 domain.RiskSafe,
			EstimatedSuccessRate: 0.9,
		},
	},
	domain.KindNetwork: {
		{
			Kind:                 domain.RecoveryRetry,
			Description:          "automatic retry with exponential backoff",
			UserDescription:      "Retrying automatically.",
			Automated:            true,
			Risk:                 domain.RiskSafe,
			EstimatedSuccessRate: 0.7,
		},
		{
			Kind:                 domain.RecoveryManualFix,
			Description:          "manual retry by the user",
			UserDescription:      "Please wait a moment and try again.",
			Risk:                 domain.RiskSafe,
			EstimatedSuccessRate: 0.8,
		},
	},
	domain.KindSession: {
		{
			Kind:                 domain.RecoveryRestartSession,
			Description:          "start a new session",
			UserDescription:      "Starting over from the beginning.",
			Automated:            true,
			Risk:                 domain.RiskLow,
			EstimatedSuccessRate: 0.95,
		},
	},
	domain.KindScheduleConflict: {
		{
			Kind:                 domain.RecoveryAlternativeFlow,
			Description:          "propose non-conflicting time slots",
			UserDescription:      "Suggesting free time slots.",
			Automated:            true,
			Risk:                 domain.RiskSafe,
			EstimatedSuccessRate: 0.8,
		},
	},
	domain.KindGoogleCalendar: {
		{
			Kind:                 domain.RecoveryRetry,
			Description:          "reconnect to the calendar API",
			UserDescription:      "Reconnecting automatically.",
			Automated:            true,
			Risk:                 domain.RiskSafe,
			EstimatedSuccessRate: 0.6,
		},
	},

	domain.KindInvalidDateTime:       nil,
	domain.KindInvalidDuration:       nil,
	domain.KindMissingRequiredField:  nil,
	domain.KindSystem:                nil,
	domain.KindDataCorruption:        nil,
	domain.KindConfiguration:         nil,
	domain.KindExternalAPI:           nil,
	domain.KindCloudflareAI:          nil,
	domain.KindWeatherAPI:            nil,
	domain.KindTrafficAPI:            nil,
	domain.KindTimeout:               nil,
	domain.KindConnection:            nil,
	domain.KindAuthentication:        nil,
	domain.KindAuthorization:         nil,
	domain.KindTokenExpired:          nil,
	domain.KindInvalidCredentials:    nil,
	domain.KindRateLimit:             nil,
	domain.KindQuotaExceeded:         nil,
	domain.KindDataValidation:        nil,
	domain.KindSchemaValidation:      nil,
	domain.KindBusinessRuleViolation: nil,
	domain.KindResourceConflict:      nil,
	domain.KindConstraintViolation:   nil,
}

var (
	_ [len(suggestionTable) - int(domain.MaxErrorKind) - 1]struct{}
	_ [int(domain.MaxErrorKind) + 1 - len(suggestionTable)]struct{}
)

// DefaultSuggestions returns a copy of the fixed suggestions for kind.
func DefaultSuggestions(kind domain.ErrorKind) []domain.Suggestion {
	if !kind.Valid() {
		return nil
	}
	src := suggestionTable[kind]
	if len(src) == 0 {
		return nil
	}
	out := make([]domain.Suggestion, len(src))
	copy(out, src)
	return out
}
