package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quitflow/internal/store"
)

// CoinsOptions holds flags for the coins command.
type CoinsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// CoinsResult is the success payload of the coins command.
type CoinsResult struct {
	Balance      int64            `json:"balance"`
	Transactions []TransactionRow `json:"transactions"`
}

// TransactionRow is one ledger entry in the coins command output.
type TransactionRow struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Type      string `json:"type"`
	Context   string `json:"context,omitempty"`
	Question  string `json:"question,omitempty"`
	CreatedAt string `json:"created_at"`
}

// NewCoinsCommand creates the coins command.
func NewCoinsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoinsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "coins",
		Short:         "Show the coin balance and recent ledger entries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoins(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum ledger entries to show")

	return cmd
}

func runCoins(opts *CoinsOptions, cmd *cobra.Command) error {
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
	balance, err := st.Balance(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read balance", err)
	}

	transactions, err := st.ListTransactions(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list transactions", err)
	}

	rows := make([]TransactionRow, len(transactions))
	for i, tx := range transactions {
		rows[i] = TransactionRow{
			ID:        tx.ID,
			Amount:    tx.Amount,
			Type:      tx.Type,
			Context:   tx.Metadata.Context,
			Question:  tx.Metadata.QuestionKey,
			CreatedAt: tx.CreatedAt.Format(time.RFC3339),
		}
	}

	if opts.Format == "json" {
		return formatter.Success(CoinsResult{Balance: balance, Transactions: rows})
	}

	fmt.Fprintf(formatter.Writer, "Balance: %d\n", balance)
	for _, row := range rows {
		label := row.Type
		if row.Question != "" {
			label = fmt.Sprintf("%s (%s)", row.Type, row.Question)
		}
		fmt.Fprintf(formatter.Writer, "  %+6d  %s\n", row.Amount, label)
	}
	return nil
}
