package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quitflow/internal/packs"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                    `json:"valid"`
	Questions int                     `json:"questions"`
	Errors    []packs.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pack-dir>",
		Short: "Validate a question pack without seeding",
		Long: `Validate a CUE question pack without touching the database.

Checks every declared question and the dependency graph: duplicate keys,
unknown kinds, missing choices, dangling or cyclic dependencies.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, packDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, loadErrors := packs.LoadPack(packDir, packs.LoadModeCollectAll)

	// Load errors without a result mean the directory itself is unusable
	if result == nil && len(loadErrors) > 0 {
		var loadErr *packs.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, packs.ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, packDir)

	var validationErrors []packs.ValidationError
	for _, err := range loadErrors {
		var loadErr *packs.LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, packs.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
		} else {
			validationErrors = append(validationErrors, packs.ValidationError{
				Field:   "load",
				Message: err.Error(),
				Code:    packs.ErrCodeGeneric,
			})
		}
	}
	validationErrors = append(validationErrors, packs.Validate(result.Questions)...)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(result.Questions), validationErrors)
	}

	return outputValidateSuccess(formatter, len(result.Questions))
}

func outputValidateSuccess(f *OutputFormatter, questions int) error {
	if f.Format == "json" {
		return f.Success(ValidationResult{Valid: true, Questions: questions})
	}
	return f.Success(fmt.Sprintf("✓ Pack valid (%d questions)", questions))
}

func outputValidationErrors(f *OutputFormatter, questions int, errs []packs.ValidationError) error {
	if f.Format == "json" {
		if err := f.Success(ValidationResult{Valid: false, Questions: questions, Errors: errs}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ Pack invalid (%d error(s))\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(f.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}

func outputValidateError(f *OutputFormatter, code, message string) error {
	if err := f.Error(code, message, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, message)
}
