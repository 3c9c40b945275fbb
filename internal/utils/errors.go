package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-level errors shared by the repositories, the reapers and the
// account deletion flow.
var (
	// ErrRecordNotFound means the row was already gone. Reapers treat it as
	// success: somebody else finished the work.
	ErrRecordNotFound = errors.New("record_not_found")

	// ErrTombstoneMissing is returned by the retention purge when the
	// deleted-account row it selected has vanished before it could be locked.
	ErrTombstoneMissing = errors.New("deleted_account_tombstone_missing")

	// ErrBatchHadFailures marks a reaper run in which at least one record
	// could not be reconciled.
	ErrBatchHadFailures = errors.New("batch_had_failures")

	ErrInvalidAccountID = errors.New("invalid_account_id")
)

// StorageError wraps any database failure at the repository edge.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PaymentPlatformError wraps a failed call to the payment platform. The HTTP
// status and raw response body are kept for the failure report.
type PaymentPlatformError struct {
	Op         string
	StatusCode int
	Code       string
	Body       string
	Err        error
}

func (e *PaymentPlatformError) Error() string {
	msg := fmt.Sprintf("payment platform error (%s): status=%d code=%s body=%s", e.Op, e.StatusCode, e.Code, e.Body)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PaymentPlatformError) Unwrap() error { return e.Err }

// SearchIndexError wraps a failed call to the consultant search index.
type SearchIndexError struct {
	Op  string
	Err error
}

func (e *SearchIndexError) Error() string {
	return fmt.Sprintf("search index error (%s): %v", e.Op, e.Err)
}

func (e *SearchIndexError) Unwrap() error { return e.Err }

// MailSendError is returned when the mail provider refuses or fails a send.
type MailSendError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *MailSendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mail send failed: status=%d body=%s: %v", e.StatusCode, e.Body, e.Err)
	}
	return fmt.Sprintf("mail send failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *MailSendError) Unwrap() error { return e.Err }

// BatchError is the only error a reaper run returns once records have been
// attempted. Failure of the record work and failure of the report mail are
// kept in separate fields; errors.Is sees both.
type BatchError struct {
	Job       string
	Processed int
	Failed    int
	Summary   string
	NotifyErr error
	Cause     error
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("%s: %d processed, %d failed", e.Job, e.Processed, e.Failed)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (stopped early: %v)", e.Cause)
	}
	if e.NotifyErr != nil {
		msg += fmt.Sprintf("; failure report could not be sent: %v\n%s", e.NotifyErr, e.Summary)
	}
	return msg
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, 3)
	if e.Failed > 0 {
		errs = append(errs, ErrBatchHadFailures)
	}
	if e.NotifyErr != nil {
		errs = append(errs, e.NotifyErr)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
