package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quitflow/internal/packs"
	"quitflow/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeedResult is the success payload of the seed command.
type SeedResult struct {
	Context   string `json:"context"`
	Questions int    `json:"questions"`
	Database  string `json:"database"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <pack-dir>",
		Short: "Validate a question pack and seed it into the database",
		Long: `Validate a CUE question pack and upsert its questions into the database.

Seeding is idempotent: re-seeding updates question text and metadata in
place without duplicating rows or touching stored answers.

Example:
  quitflow seed --db ./quitflow.db ./packs/onboarding`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults from config)")

	return cmd
}

func runSeed(opts *SeedOptions, packDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrors := packs.LoadPack(packDir, packs.LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *packs.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, packs.ErrCodeGeneric, loadErrors[0].Error())
	}

	if verrs := packs.Validate(result.Questions); len(verrs) > 0 {
		return outputValidationErrors(formatter, len(result.Questions), verrs)
	}

	dbPath, err := resolveDatabase(opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	opts.Database = dbPath

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := st.SeedQuestions(cmd.Context(), result.Questions); err != nil {
		return WrapExitError(ExitCommandError, "failed to seed questions", err)
	}

	formatter.VerboseLog("Seeded %d question(s) for context %q", len(result.Questions), result.Context)

	if opts.Format == "json" {
		return formatter.Success(SeedResult{
			Context:   result.Context,
			Questions: len(result.Questions),
			Database:  opts.Database,
		})
	}
	return formatter.Success(fmt.Sprintf("✓ Seeded %d question(s) for context %q", len(result.Questions), result.Context))
}
