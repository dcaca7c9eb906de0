package taxonomy

import "github.com/vietddude/schedrecovery/internal/core/domain"

var severityTable = [...]domain.Severity{
	domain.KindUserInput:            domain.SeverityLow,
	domain.KindInvalidDateTime:      domain.SeverityLow,
	domain.KindInvalidDuration:      domain.SeverityLow,
	domain.KindMissingRequiredField: domain.SeverityLow,

	domain.KindSystem:         domain.SeverityHigh,
	domain.KindSession:        domain.SeverityMedium,
	domain.KindDataCorruption: domain.SeverityCritical,
	domain.KindConfiguration:  domain.SeverityHigh,

	domain.KindExternalAPI:    domain.SeverityMedium,
	domain.KindGoogleCalendar: domain.SeverityMedium,
	domain.KindCloudflareAI:   domain.SeverityMedium,
	domain.KindWeatherAPI:     domain.SeverityLow,
	domain.KindTrafficAPI:     domain.SeverityLow,

	domain.KindNetwork:    domain.SeverityMedium,
	domain.KindTimeout:    domain.SeverityMedium,
	domain.KindConnection: domain.SeverityMedium,

	domain.KindAuthentication:     domain.SeverityHigh,
	domain.KindAuthorization:      domain.SeverityHigh,
	domain.KindTokenExpired:       domain.SeverityMedium,
	domain.KindInvalidCredentials: domain.SeverityHigh,

	domain.KindRateLimit:     domain.SeverityMedium,
	domain.KindQuotaExceeded: domain.SeverityMedium,

	domain.KindDataValidation:        domain.SeverityMedium,
	domain.KindSchemaValidation:      domain.SeverityMedium,
	domain.KindBusinessRuleViolation: domain.SeverityMedium,

	domain.KindScheduleConflict:    domain.SeverityLow,
	domain.KindResourceConflict:    domain.SeverityMedium,
	domain.KindConstraintViolation: domain.SeverityMedium,
}

var (
	_ [len(severityTable) - int(domain.MaxErrorKind) - 1]struct{}
	_ [int(domain.MaxErrorKind) + 1 - len(severityTable)]struct{}
)

// SeverityOf returns the fixed severity of kind. Unknown kinds are MEDIUM.
func SeverityOf(kind domain.ErrorKind) domain.Severity {
	if !kind.Valid() {
		return domain.SeverityMedium
	}
	return severityTable[kind]
}
