package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	err := New(CategoryFormat, CodeInvalidFormat, "bad file")
	if err.Error() != "bad file" {
		t.Errorf("Expected bare message, got %q", err.Error())
	}

	err = err.WithSuggestion("check the export")
	if !strings.Contains(err.Error(), "suggestion: check the export") {
		t.Errorf("Expected suggestion in message, got %q", err.Error())
	}
}

func TestPipelineError_GetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryFormat, 3},
		{CategoryMapping, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryLoad, 5},
		{CategoryInternal, 6},
		{ErrorCategory("other"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, CodeUnexpectedError, "test")
			if got := err.GetExitCode(); got != tt.want {
				t.Errorf("Expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPipelineError_WithContext(t *testing.T) {
	err := New(CategoryLoad, CodeInsertFailed, "insert failed").
		WithContext("source", "axis").
		WithContext("chunk_size", 1000)

	if err.Context["source"] != "axis" {
		t.Errorf("Expected source context, got %v", err.Context["source"])
	}
	if err.Context["chunk_size"] != 1000 {
		t.Errorf("Expected chunk_size context, got %v", err.Context["chunk_size"])
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryLoad, CodeTransactionFailed, "commit failed")

	if err.Unwrap() != cause {
		t.Errorf("Expected wrapped cause, got %v", err.Unwrap())
	}
	if err.Category != CategoryLoad || err.Code != CodeTransactionFailed {
		t.Errorf("Unexpected category/code: %s/%s", err.Category, err.Code)
	}

	if Wrap(nil, CategoryLoad, CodeTransactionFailed, "x") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name         string
		err          *PipelineError
		wantCategory ErrorCategory
		wantCode     ErrorCode
		wantInMsg    string
	}{
		{
			name:         "file not found",
			err:          FileError(CodeFileNotFound, "/tmp/x.csv", nil),
			wantCategory: CategoryFile,
			wantCode:     CodeFileNotFound,
			wantInMsg:    "/tmp/x.csv",
		},
		{
			name:         "missing sheet",
			err:          FormatError(CodeMissingSheet, "axis.xlsx", "Holdings", nil),
			wantCategory: CategoryFormat,
			wantCode:     CodeMissingSheet,
			wantInMsg:    "Holdings",
		},
		{
			name:         "coercion",
			err:          MappingError(CodeCoercionError, "total_position", "abc", nil),
			wantCategory: CategoryMapping,
			wantCode:     CodeCoercionError,
			wantInMsg:    "total_position",
		},
		{
			name:         "missing field",
			err:          ValidationError(CodeMissingField, "client_reference", "", nil),
			wantCategory: CategoryValidation,
			wantCode:     CodeMissingField,
			wantInMsg:    "client_reference",
		},
		{
			name:         "load",
			err:          LoadError(CodeConnectionFailed, "connect", fmt.Errorf("refused")),
			wantCategory: CategoryLoad,
			wantCode:     CodeConnectionFailed,
			wantInMsg:    "connect",
		},
		{
			name:         "configuration",
			err:          ConfigurationError(CodeUnknownSource, "source", "zerodha", nil),
			wantCategory: CategoryConfiguration,
			wantCode:     CodeUnknownSource,
			wantInMsg:    "zerodha",
		},
		{
			name:         "internal",
			err:          InternalError(CodeUnexpectedError, "map row", fmt.Errorf("panic")),
			wantCategory: CategoryInternal,
			wantCode:     CodeUnexpectedError,
			wantInMsg:    "map row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.wantCategory {
				t.Errorf("Expected category %s, got %s", tt.wantCategory, tt.err.Category)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if !strings.Contains(tt.err.Message, tt.wantInMsg) {
				t.Errorf("Expected %q in message %q", tt.wantInMsg, tt.err.Message)
			}
			if tt.err.Suggestion == "" {
				t.Error("Constructors should attach a suggestion")
			}
		})
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*PipelineError{
		FileError(CodeFileNotFound, "a.csv", nil),
		FormatError(CodeMissingHeader, "b.xlsx", "2", nil),
		LoadError(CodeInsertFailed, "insert", nil),
	}

	summary := NewErrorSummary(errs)
	if summary.Total != 3 {
		t.Errorf("Expected 3 errors, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryFile] != 1 {
		t.Errorf("Expected 1 file error, got %d", summary.ByCategory[CategoryFile])
	}
	if !summary.HasCategory(CategoryLoad) {
		t.Error("Expected load category present")
	}
	if summary.HasCategory(CategoryInternal) {
		t.Error("Internal category should be absent")
	}
	if summary.GetExitCode() != 5 {
		t.Errorf("Expected highest exit code 5, got %d", summary.GetExitCode())
	}
	if !strings.Contains(summary.Error(), "3 errors occurred") {
		t.Errorf("Unexpected summary message: %q", summary.Error())
	}
}

func TestErrorSummary_Empty(t *testing.T) {
	summary := NewErrorSummary(nil)
	if summary.Total != 0 {
		t.Errorf("Expected 0 errors, got %d", summary.Total)
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("Expected exit code 0, got %d", summary.GetExitCode())
	}
	if summary.Error() != "no errors" {
		t.Errorf("Unexpected message: %q", summary.Error())
	}
}

func TestErrorSummary_Samples(t *testing.T) {
	var errs []*PipelineError
	for i := 0; i < 8; i++ {
		errs = append(errs, ValidationError(CodeMissingField, "client_reference", "", nil))
	}

	summary := NewErrorSummary(errs)
	if len(summary.SampleErrors) != 5 {
		t.Errorf("Expected 5 samples, got %d", len(summary.SampleErrors))
	}
}

func TestAsPipelineError(t *testing.T) {
	inner := FormatError(CodeInvalidFormat, "x.csv", "bad", nil)
	wrapped := fmt.Errorf("reading file: %w", inner)

	got, ok := AsPipelineError(wrapped)
	if !ok {
		t.Fatal("Expected PipelineError in chain")
	}
	if got.Code != CodeInvalidFormat {
		t.Errorf("Expected invalid_format, got %s", got.Code)
	}

	if _, ok := AsPipelineError(fmt.Errorf("plain")); ok {
		t.Error("Plain error should not extract as PipelineError")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := LoadError(CodeSchemaError, "ensure schema", nil)
	if got := WrapIfNeeded(original, CategoryInternal, CodeUnexpectedError, "x"); got != original {
		t.Error("Existing PipelineError should pass through unchanged")
	}

	plain := fmt.Errorf("boom")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "unexpected")
	if got.Category != CategoryInternal || got.Unwrap() != plain {
		t.Errorf("Expected wrapped internal error, got %v", got)
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "x") != nil {
		t.Error("nil should stay nil")
	}
}
