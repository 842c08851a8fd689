// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeStartupNotFound       ErrorCode = "STARTUP_NOT_FOUND"
	ErrCodeInvestorNotFound      ErrorCode = "INVESTOR_NOT_FOUND"
	ErrCodeProfileInvalid        ErrorCode = "PROFILE_INVALID"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeCandidateSourceFailed ErrorCode = "CANDIDATE_SOURCE_FAILED"
	ErrCodeSearchQueryFailed     ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout         ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound         ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// --- Business errors ---

func NewStartupNotFoundError(startupID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStartupNotFound,
		Message:   "Startup not found",
		Details:   fmt.Sprintf("startupId: %s", startupID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvestorNotFoundError(investorID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvestorNotFound,
		Message:   "Investor not found",
		Details:   fmt.Sprintf("investorId: %s", investorID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewProfileInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileInvalid,
		Message:   "Profile data is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Job input failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// --- Technical errors ---

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCandidateSourceFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateSourceFailed,
		Message:   "Could not load the investor pool",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchTimeoutError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("index: %s", index),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// --- Generic errors used by the zeebe client wrapper ---

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeStartupNotFound:          "STARTUP_NOT_FOUND",
	ErrCodeInvestorNotFound:         "INVESTOR_NOT_FOUND",
	ErrCodeProfileInvalid:           "PROFILE_INVALID",
	ErrCodeInputValidationFailed:    "INPUT_VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeCandidateSourceFailed:    "CANDIDATE_SOURCE_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:            "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCandidateSourceFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STARTUP") || strings.Contains(codeStr, "INVESTOR") || strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX") || strings.Contains(codeStr, "CANDIDATE"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
