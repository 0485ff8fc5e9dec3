package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quitflow/internal/store"
)

// AnswersOptions holds flags for the answers command.
type AnswersOptions struct {
	*RootOptions
	Database string
	Context  string
}

// AnswerRow is one stored answer in the answers command output.
type AnswerRow struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	AnsweredAt string `json:"answered_at"`
	UpdatedAt  string `json:"updated_at"`
}

// NewAnswersCommand creates the answers command.
func NewAnswersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnswersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "answers",
		Short:         "List stored answers for a flow context",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswers(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults from config)")
	cmd.Flags().StringVar(&opts.Context, "context", "onboarding", "flow context")

	return cmd
}

func runAnswers(opts *AnswersOptions, cmd *cobra.Command) error {
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

	answers, err := st.ListAnswers(cmd.Context(), opts.Context)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list answers", err)
	}

	rows := make([]AnswerRow, len(answers))
	for i, a := range answers {
		rows[i] = AnswerRow{
			Question:   a.QuestionKey,
			Answer:     a.Raw,
			AnsweredAt: a.AnsweredAt.Format(time.RFC3339),
			UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
		}
	}

	if opts.Format == "json" {
		return formatter.Success(rows)
	}

	if len(rows) == 0 {
		return formatter.Success(fmt.Sprintf("No answers stored for context %q", opts.Context))
	}
	fmt.Fprintf(formatter.Writer, "Answers for context %q:\n", opts.Context)
	for _, row := range rows {
		fmt.Fprintf(formatter.Writer, "  %-24s %s\n", row.Question, row.Answer)
	}
	return nil
}
