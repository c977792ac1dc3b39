package common

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorCode describes an error in the pipeline's taxonomy.
type ErrorCode struct {
	Code        string // e.g. CFG_001
	Category    string // Configuration | Scoring | Database | Job
	SubCategory string
	Description string
	Retryable   bool // Whether the job consumer may retry a run failing with this code
}

var (
	// Configuration errors (CFG_xxx): a data/setup fix is required, never retried.
	ErrCodeConfig = ErrorCode{
		Code:        "CFG",
		Category:    "Configuration",
		SubCategory: "General",
		Description: "Pipeline configuration error",
	}

	ErrCodeConfigKpi = ErrorCode{
		Code:        "CFG_001",
		Category:    "Configuration",
		SubCategory: "Kpi",
		Description: "KPI definitions missing for the store's channel",
	}

	ErrCodeConfigCatalog = ErrorCode{
		Code:        "CFG_002",
		Category:    "Configuration",
		SubCategory: "Catalog",
		Description: "Company SKU catalog missing",
	}

	ErrCodeConfigTenant = ErrorCode{
		Code:        "CFG_003",
		Category:    "Configuration",
		SubCategory: "Tenant",
		Description: "Tenant data store is not registered",
	}

	// Scoring errors (SCR_xxx): recovered locally by dropping the node.
	ErrCodeScoring = ErrorCode{
		Code:        "SCR",
		Category:    "Scoring",
		SubCategory: "General",
		Description: "KPI node could not be scored",
	}

	ErrCodeScoringCondition = ErrorCode{
		Code:        "SCR_001",
		Category:    "Scoring",
		SubCategory: "Condition",
		Description: "Malformed KPI condition",
	}

	ErrCodeScoringDepth = ErrorCode{
		Code:        "SCR_002",
		Category:    "Scoring",
		SubCategory: "Depth",
		Description: "KPI tree exceeds the maximum depth",
	}

	// Database errors (DB_xxx): transient unless noted.
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Database error",
		Retryable:   true,
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Database connection error",
		Retryable:   true,
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Database query error",
		Retryable:   true,
	}

	ErrCodeDatabaseNotFound = ErrorCode{
		Code:        "DB_003",
		Category:    "Database",
		SubCategory: "NotFound",
		Description: "Document not found",
	}

	// Job errors (JOB_xxx)
	ErrCodeJobPayload = ErrorCode{
		Code:        "JOB_001",
		Category:    "Job",
		SubCategory: "Payload",
		Description: "Invalid job payload",
	}
)

// Error is the detailed error type used across the pipeline.
type Error struct {
	Code    ErrorCode // Taxonomy entry
	Message string    // Human readable message
	Details any       // Optional extra context (ids, offending value)
	cause   error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same code and message (supports errors.Is on sentinels).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code.Code == t.Code.Code && e.Message == t.Message
}

// NewError creates an error with full information.
func NewError(code ErrorCode, message string, details any) error {
	return &Error{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap attaches details and a cause to a sentinel, keeping errors.Is working against the sentinel.
func Wrap(sentinel error, details any, cause error) error {
	var base *Error
	if !errors.As(sentinel, &base) {
		return sentinel
	}
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Details: details,
		cause:   cause,
	}
}

var (
	ErrNoKpiDefinitions = NewError(ErrCodeConfigKpi, "no KPI definitions for store channel", nil)
	ErrMissingCatalog   = NewError(ErrCodeConfigCatalog, "company SKU catalog is empty", nil)
	ErrTenantUnknown    = NewError(ErrCodeConfigTenant, "tenant is not registered", nil)

	ErrMalformedCondition = NewError(ErrCodeScoringCondition, "malformed condition", nil)
	ErrMalformedKpi       = NewError(ErrCodeScoring, "malformed KPI definition", nil)
	ErrTreeTooDeep        = NewError(ErrCodeScoringDepth, "KPI tree too deep", nil)

	ErrNotFound   = NewError(ErrCodeDatabaseNotFound, "document not found", nil)
	ErrConnection = NewError(ErrCodeDatabaseConnection, "database connection error", nil)
	ErrQuery      = NewError(ErrCodeDatabaseQuery, "database query error", nil)
	ErrDuplicate  = NewError(ErrCodeDatabaseQuery, "duplicate key", nil)

	ErrInvalidJob = NewError(ErrCodeJobPayload, "invalid job payload", nil)
)

// ConvertMongoError maps driver errors onto the pipeline taxonomy.
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return Wrap(ErrNotFound, nil, err)
	case mongo.IsDuplicateKeyError(err):
		return Wrap(ErrDuplicate, nil, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected), errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrConnection, nil, err)
	}
	return Wrap(ErrQuery, nil, err)
}

// IsConfigError reports whether err belongs to the configuration category.
func IsConfigError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Category == ErrCodeConfig.Category
	}
	return false
}

// IsRetryable reports whether the job consumer may retry a run that failed with err.
// Unknown errors are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Retryable
	}
	return !errors.Is(err, context.Canceled)
}
