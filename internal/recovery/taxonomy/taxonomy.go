// Package taxonomy classifies failures into the closed ErrorKind set and
// builds ErrorRecords with their fixed severity, suggestions and wording.
package taxonomy

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/core/ids"
)

const unknownOperation = "unknown"

// New builds an ErrorRecord for kind. It never fails.
func New(kind domain.ErrorKind, message string, ec domain.ErrorContext, cause error) *domain.ErrorRecord {
	return NewAt(time.Now(), kind, message, ec, cause)
}

// NewAt is New with an explicit creation time.
func NewAt(now time.Time, kind domain.ErrorKind, message string, ec domain.ErrorContext, cause error) *domain.ErrorRecord {
	if ec.OperationType == "" {
		ec.OperationType = unknownOperation
	}
	if ec.OperationStep == "" {
		ec.OperationStep = unknownOperation
	}
	if ec.Timestamp.IsZero() {
		ec.Timestamp = now
	}
	if len(ec.State) > 0 {
		ec.State = append([]byte(nil), ec.State...)
	}

	suggestions := DefaultSuggestions(kind)
	retryable := false
	for _, s := range suggestions {
		if s.Kind == domain.RecoveryRetry {
			retryable = true
			break
		}
	}

	return &domain.ErrorRecord{
		ID:          ids.New(ids.PrefixError, now),
		Code:        codeFor(kind, now),
		Kind:        kind,
		Severity:    SeverityOf(kind),
		Message:     message,
		UserMessage: UserMessage(kind, message),
		Context:     ec,
		Suggestions: suggestions,
		Recoverable: len(suggestions) > 0,
		Retryable:   retryable,
		CreatedAt:   now,
		Cause:       cause,
	}
}

func codeFor(kind domain.ErrorKind, now time.Time) string {
	name := "UNKNOWN"
	if kind.Valid() {
		name = strings.ToUpper(kind.String())
	}
	return name + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Classify converts an arbitrary collaborator error into an ErrorRecord.
// Records already carrying a kind are returned unchanged; otherwise the kind
// is inferred from well-known error types and falls back to fallback.
func Classify(err error, fallback domain.ErrorKind, ec domain.ErrorContext) *domain.ErrorRecord {
	if err == nil {
		return nil
	}
	var rec *domain.ErrorRecord
	if errors.As(err, &rec) {
		return rec
	}
	return New(inferKind(err, fallback), err.Error(), ec, err)
}

func inferKind(err error, fallback domain.ErrorKind) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.KindTimeout
		}
		return domain.KindNetwork
	}
	if !fallback.Valid() {
		return domain.KindSystem
	}
	return fallback
}
