package taxonomy

import (
	"strings"

	"github.com/vietddude/schedrecovery/internal/core/domain"
)

// Template is the user-facing wording for an ErrorKind. Message may contain
// {details} or {conflictDetails}.
type Template struct {
	Title   string
	Message string
	Hints   []string
}

// Tone controls how a message is rendered to the user.
type Tone string

const (
	ToneInfo     Tone = "info"
	ToneWarning  Tone = "warning"
	ToneError    Tone = "error"
	ToneCritical Tone = "critical"
)

// UserGuidance is what a chat layer shows for a classified failure.
type UserGuidance struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Hints          []string `json:"hints"`
	Tone           Tone     `json:"tone"`
	ContactSupport bool     `json:"contact_support"`
}

var genericTemplate = Template{
	Title:   "Unexpected error",
	Message: "Something went wrong: {details}",
	Hints:   []string{"Please wait a moment and try again", "Contact support if the problem continues"},
}

var templateTable = [...]Template{
	domain.KindUserInput: {
		"Input error", "There is a problem with your input: {details}",
		[]string{"Check what you entered", "Example: \"tomorrow 15:00-16:00 meeting\""},
	},
	domain.KindInvalidDateTime: {
		"Date/time error", "The date or time is not valid: {details}",
		[]string{"Use a valid date and time", "Example: \"12/25 14:00\" or \"tomorrow 3pm\""},
	},
	domain.KindInvalidDuration: {
		"Duration error", "The duration is not valid: {details}",
		[]string{"Specify a valid duration", "Example: \"1 hour\", \"30 minutes\", \"14:00-15:00\""},
	},
	domain.KindMissingRequiredField: {
		"Missing information", "Some required information is missing: {details}",
		[]string{"Fill in every required field", "A title and a time are required"},
	},

	domain.KindSystem: {
		"System error", "An internal error occurred: {details}",
		[]string{"Please wait a moment and try again", "Contact support if the problem continues"},
	},
	domain.KindSession: {
		"Session error", "Your session is invalid or has expired",
		[]string{"Start the operation again from the beginning"},
	},
	domain.KindDataCorruption: {
		"Data error", "The stored data is inconsistent: {details}",
		[]string{"Start the operation again", "Contact support"},
	},
	domain.KindConfiguration: {
		"Configuration error", "The service is misconfigured: {details}",
		[]string{"Contact an administrator", "Please wait a moment and try again"},
	},

	domain.KindExternalAPI: {
		"External service error", "A connected service returned an error: {details}",
		[]string{"Please wait a moment and try again", "Check the service status"},
	},
	domain.KindGoogleCalendar: {
		"Calendar connection error", "Could not talk to Google Calendar: {details}",
		[]string{"Please wait a moment and try again", "Check the calendar permissions"},
	},
	domain.KindCloudflareAI: {
		"AI processing error", "The assistant could not process your request",
		[]string{"Be more specific", "Enter the details manually"},
	},
	domain.KindWeatherAPI: {
		"Weather unavailable", "Could not fetch weather information: {details}",
		[]string{"Continuing without weather information"},
	},
	domain.KindTrafficAPI: {
		"Traffic unavailable", "Could not fetch traffic information: {details}",
		[]string{"Continuing without traffic information"},
	},

	domain.KindNetwork: {
		"Network error", "There is a problem with the network connection",
		[]string{"Check your internet connection", "Please wait a moment and try again"},
	},
	domain.KindTimeout: {
		"Timeout", "The request timed out: {details}",
		[]string{"Please wait a moment and try again", "Check your internet connection"},
	},
	domain.KindConnection: {
		"Connection error", "Could not connect to the server: {details}",
		[]string{"Check your internet connection", "Please wait a moment and try again"},
	},

	domain.KindAuthentication: {
		"Authentication error", "Authentication failed: {details}",
		[]string{"Check that you are signed in", "Sign in again"},
	},
	domain.KindAuthorization: {
		"Permission denied", "You are not allowed to perform this operation: {details}",
		[]string{"Contact an administrator", "Check the required permissions"},
	},
	domain.KindTokenExpired: {
		"Session token expired", "Your access token has expired: {details}",
		[]string{"Sign in again"},
	},
	domain.KindInvalidCredentials: {
		"Invalid credentials", "The credentials are not valid: {details}",
		[]string{"Check your sign-in details", "Contact an administrator"},
	},

	domain.KindRateLimit: {
		"Too many requests", "Please wait a little before trying again",
		[]string{"Try again in a minute", "Avoid repeating the operation rapidly"},
	},
	domain.KindQuotaExceeded: {
		"Quota exceeded", "The usage limit has been reached: {details}",
		[]string{"Please wait before trying again", "Contact an administrator"},
	},

	domain.KindDataValidation: {
		"Validation error", "The data is not in the expected format: {details}",
		[]string{"Check what you entered", "Use the expected format"},
	},
	domain.KindSchemaValidation: {
		"Schema error", "The data structure is invalid: {details}",
		[]string{"Check the input format", "Contact support"},
	},
	domain.KindBusinessRuleViolation: {
		"Not allowed", "The operation is not allowed: {details}",
		[]string{"Review the request"},
	},

	domain.KindScheduleConflict: {
		"Schedule conflict", "Another event already occupies that time: {conflictDetails}",
		[]string{"Pick a different time", "Change the existing event"},
	},
	domain.KindResourceConflict: {
		"Resource conflict", "The resource is in use elsewhere: {details}",
		[]string{"Choose a different resource", "Please wait a moment and try again"},
	},
	domain.KindConstraintViolation: {
		"Constraint violation", "A constraint was violated: {details}",
		[]string{"Check what you entered"},
	},
}

var (
	_ [len(templateTable) - int(domain.MaxErrorKind) - 1]struct{}
	_ [int(domain.MaxErrorKind) + 1 - len(templateTable)]struct{}
)

// TemplateFor returns the wording for kind, or a generic template.
func TemplateFor(kind domain.ErrorKind) Template {
	if !kind.Valid() || templateTable[kind].Message == "" {
		return genericTemplate
	}
	return templateTable[kind]
}

// UserMessage renders the template of kind with details substituted.
func UserMessage(kind domain.ErrorKind, details string) string {
	tpl := TemplateFor(kind)
	r := strings.NewReplacer("{details}", details, "{conflictDetails}", details)
	return r.Replace(tpl.Message)
}

// Describe returns rendering guidance for kind.
func Describe(kind domain.ErrorKind, details string) UserGuidance {
	tpl := TemplateFor(kind)
	sev := SeverityOf(kind)
	hints := make([]string, len(tpl.Hints))
	copy(hints, tpl.Hints)
	return UserGuidance{
		Title:          tpl.Title,
		Description:    UserMessage(kind, details),
		Hints:          hints,
		Tone:           toneFor(sev),
		ContactSupport: sev == domain.SeverityHigh || sev == domain.SeverityCritical,
	}
}

func toneFor(sev domain.Severity) Tone {
	switch sev {
	case domain.SeverityLow:
		return ToneInfo
	case domain.SeverityMedium:
		return ToneWarning
	case domain.SeverityHigh:
		return ToneError
	default:
		return ToneCritical
	}
}
