package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quitflow/internal/store"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Database string
	Context  string
	Ledger   bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored answers for a flow context",
		Long: `Delete all stored answers for a flow context so the flow can be retaken.

Question definitions are kept. The coin ledger is kept unless --ledger is
passed; without it, retaking the flow grants no second rewards.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults from config)")
	cmd.Flags().StringVar(&opts.Context, "context", "onboarding", "flow context")
	cmd.Flags().BoolVar(&opts.Ledger, "ledger", false, "also clear the coin ledger")

	return cmd
}

func runReset(opts *ResetOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dbPath, err := resolveDatabase(opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := st.DeleteAllAnswers(ctx, opts.Context); err != nil {
		return WrapExitError(ExitCommandError, "failed to delete answers", err)
	}

	if opts.Ledger {
		if err := st.ResetLedger(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to reset ledger", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"context": opts.Context,
			"ledger":  opts.Ledger,
		})
	}
	msg := fmt.Sprintf("✓ Cleared answers for context %q", opts.Context)
	if opts.Ledger {
		msg += " and the coin ledger"
	}
	return formatter.Success(msg)
}
