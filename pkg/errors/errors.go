package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryFormat        ErrorCategory = "format"
	CategoryMapping       ErrorCategory = "mapping"
	CategoryValidation    ErrorCategory = "validation"
	CategoryLoad          ErrorCategory = "load"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"

	// Format errors
	CodeInvalidFormat  ErrorCode = "invalid_format"
	CodeMissingSheet   ErrorCode = "missing_sheet"
	CodeMissingHeader  ErrorCode = "missing_header"
	CodeUnreadableFile ErrorCode = "unreadable_file"

	// Mapping errors
	CodeMissingColumn ErrorCode = "missing_column"
	CodeCoercionError ErrorCode = "coercion_error"

	// Validation errors
	CodeMissingField ErrorCode = "missing_field"
	CodeInvalidDate  ErrorCode = "invalid_date"

	// Load errors
	CodeTransactionFailed ErrorCode = "transaction_failed"
	CodeInsertFailed      ErrorCode = "insert_failed"
	CodeSchemaError       ErrorCode = "schema_error"
	CodeConnectionFailed  ErrorCode = "connection_failed"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"
	CodeUnknownSource ErrorCode = "unknown_source"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// PipelineError is the base error type for all application errors
type PipelineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *PipelineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryFormat, CategoryMapping, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryLoad:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PipelineError
func New(category ErrorCategory, code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with PipelineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// FormatError creates a format-related error for a source file
func FormatError(code ErrorCode, file string, detail string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingSheet:
		message = fmt.Sprintf("sheet '%s' not found in workbook %s", detail, file)
		suggestion = "verify the custodian has not renamed the holdings sheet"
	case CodeMissingHeader:
		message = fmt.Sprintf("file %s has fewer rows than the configured header offset (%s)", file, detail)
		suggestion = "check the header row offset configured for this custodian"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s: %s", file, detail)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeUnreadableFile:
		message = fmt.Sprintf("unable to read file %s: %s", file, detail)
		suggestion = "verify the file is a valid export and not corrupted or password protected"
	default:
		message = fmt.Sprintf("format error in file %s: %s", file, detail)
		suggestion = "check the file format and data integrity"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryFormat, code, message)
	} else {
		result = New(CategoryFormat, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("detail", detail)
}

// MappingError creates a row-mapping error
func MappingError(code ErrorCode, field string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("source column for field '%s' not present in row", field)
		suggestion = "verify the custodian has not renamed or dropped the column"
	case CodeCoercionError:
		message = fmt.Sprintf("unable to coerce value for field '%s': %v", field, value)
		suggestion = "inspect the raw row for unexpected cell content"
	default:
		message = fmt.Sprintf("mapping error for field '%s': %v", field, value)
		suggestion = "check the field mapping configured for this custodian"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryMapping, code, message)
	} else {
		result = New(CategoryMapping, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// LoadError creates a database load error
func LoadError(code ErrorCode, operation string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeTransactionFailed:
		message = fmt.Sprintf("transaction failed during %s", operation)
		suggestion = "the partition was rolled back; rerun the file once the cause is resolved"
	case CodeInsertFailed:
		message = fmt.Sprintf("bulk insert failed during %s", operation)
		suggestion = "check the database schema matches the unified holdings table"
	case CodeSchemaError:
		message = fmt.Sprintf("schema initialization failed during %s", operation)
		suggestion = "verify the database user has DDL privileges"
	case CodeConnectionFailed:
		message = fmt.Sprintf("database connection failed during %s", operation)
		suggestion = "check the DSN and database availability"
	default:
		message = fmt.Sprintf("load error during %s", operation)
		suggestion = "check database connectivity and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryLoad, code, message)
	} else {
		result = New(CategoryLoad, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeUnknownSource:
		message = fmt.Sprintf("unknown source system: %v", value)
		suggestion = "check the source registry for the list of configured custodians"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *PipelineError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	suggestion := "this is likely a bug - please report it with the error details"

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*PipelineError      `json:"errors"`
	SampleErrors []*PipelineError      `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*PipelineError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*PipelineError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsPipelineError checks if an error is a PipelineError
func IsPipelineError(err error) bool {
	_, ok := err.(*PipelineError)
	return ok
}

// AsPipelineError extracts a PipelineError from an error chain
func AsPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a PipelineError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	if pipelineErr, ok := AsPipelineError(err); ok {
		return pipelineErr
	}

	return Wrap(err, category, code, message)
}
