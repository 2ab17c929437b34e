package cmd

import (
	"fmt"
	"testing"

	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
)

func TestHandleError_ExitCodes(t *testing.T) {
	handler := NewCLIErrorHandler()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"plain error", fmt.Errorf("boom"), 1},
		{"file error", pkgerrors.FileError(pkgerrors.CodeFileNotFound, "/tmp/x.csv", nil), 2},
		{"format error", pkgerrors.FormatError(pkgerrors.CodeMissingSheet, "x.xlsx", "Holdings", nil), 3},
		{"configuration error", pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "workers", 0, nil), 4},
		{"load error", pkgerrors.LoadError(pkgerrors.CodeConnectionFailed, "connect", nil), 5},
		{
			name: "wrapped pipeline error",
			err:  fmt.Errorf("ingest run failed: %w", pkgerrors.LoadError(pkgerrors.CodeInsertFailed, "insert", nil)),
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.HandleError(tt.err); got != tt.want {
				t.Errorf("Expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCategoryHelp(t *testing.T) {
	categories := []pkgerrors.ErrorCategory{
		pkgerrors.CategoryFile,
		pkgerrors.CategoryFormat,
		pkgerrors.CategoryMapping,
		pkgerrors.CategoryValidation,
		pkgerrors.CategoryLoad,
		pkgerrors.CategoryConfiguration,
	}
	for _, category := range categories {
		if categoryHelp(category) == "" {
			t.Errorf("Expected help text for category %s", category)
		}
	}
	if categoryHelp(pkgerrors.CategoryInternal) != "" {
		t.Error("Internal errors should carry no category help")
	}
}
