package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quitflow/internal/config"
	"quitflow/internal/flow"
	"quitflow/internal/packs"
	"quitflow/internal/question"
	"quitflow/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Reward   int64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pack-dir>",
		Short: "Run an interactive flow session",
		Long: `Seed a question pack and run an interactive flow session in the terminal.

The session resumes from previously stored answers. Questions gated on an
unmatched branching answer are skipped. Type an answer to submit it, or
one of the commands:

  :next     advance to the next question
  :back     go back one question
  :finish   complete the session
  :quit     leave without completing

Multiple-choice answers are comma-separated.

Example:
  quitflow run --db ./quitflow.db ./packs/onboarding`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults from config)")
	cmd.Flags().Int64Var(&opts.Reward, "reward", 10, "coins granted per first-time answer (0 disables)")

	return cmd
}

func runSession(opts *RunOptions, packDir string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database == "" {
		opts.Database = cfg.Database.Path
	}
	if !cmd.Flags().Changed("reward") {
		opts.Reward = cfg.Flow.RewardAmount
	}

	loaded, loadErrors := packs.LoadPack(packDir, packs.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load pack", loadErrors[0])
	}
	if verrs := packs.Validate(loaded.Questions); len(verrs) > 0 {
		return WrapExitError(ExitFailure, "invalid pack", verrs[0])
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := st.SeedQuestions(ctx, loaded.Questions); err != nil {
		return WrapExitError(ExitCommandError, "failed to seed questions", err)
	}

	out := cmd.OutOrStdout()
	controller := flow.New(st, flow.Config{
		Context:      loaded.Context,
		RewardAmount: opts.Reward,
	}, func(_ context.Context, coins int64) error {
		fmt.Fprintf(out, "\nSession complete. Coins earned: %d\n", coins)
		return nil
	})

	if err := controller.Initialize(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to hydrate session", err)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for controller.State() == flow.StateActive {
		q, ok := controller.CurrentQuestion()
		if !ok {
			fmt.Fprintln(out, "No applicable questions.")
			if err := controller.HandleFinish(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to finish", err)
			}
			break
		}

		printQuestion(out, controller, q)

		if !scanner.Scan() {
			return nil // EOF leaves the session resumable
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case ":quit":
			return nil
		case ":next":
			controller.HandleNext()
		case ":back":
			controller.HandleBack()
		case ":finish":
			if err := controller.HandleFinish(ctx); err != nil {
				if flow.IsCode(err, flow.ErrCodeFlowIncomplete) {
					fmt.Fprintln(out, "Answer the last question before finishing.")
					continue
				}
				return WrapExitError(ExitFailure, "failed to finish", err)
			}
		case "":
			continue
		default:
			value, convErr := parseAnswer(q, line)
			if convErr != nil {
				fmt.Fprintf(out, "Invalid answer: %v\n", convErr)
				continue
			}
			if err := controller.HandleAnswer(ctx, q.Key, value); err != nil {
				return WrapExitError(ExitCommandError, "failed to save answer", err)
			}
			if controller.ShouldPlayReward(controller.CurrentIndex()) {
				fmt.Fprintf(out, "  +%d coins!\n", opts.Reward)
			}
			if !controller.IsLastQuestion() {
				controller.HandleNext()
			}
		}
	}

	return nil
}

// printQuestion renders the current question with progress and choices.
func printQuestion(out io.Writer, controller *flow.Controller, q question.Question) {
	fmt.Fprintf(out, "\n[%d/%d] %s\n", controller.CurrentIndex()+1, controller.TotalApplicable(), q.Text)
	for i, choice := range q.Choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, choice)
	}
	if v, ok := controller.CachedValue(q.Key); ok {
		fmt.Fprintf(out, "  current: %s\n", v.Encode())
	}
	fmt.Fprint(out, "> ")
}

// parseAnswer interprets terminal input per the question's declared kind.
// Choice questions also accept the 1-based choice index.
func parseAnswer(q question.Question, line string) (question.Value, error) {
	switch q.Kind {
	case question.KindNumber:
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer")
		}
		return question.Number(n), nil

	case question.KindSingleChoice:
		choice, err := resolveChoice(q, line)
		if err != nil {
			return nil, err
		}
		return question.Choice(choice), nil

	case question.KindMultiChoice:
		parts := strings.Split(line, ",")
		selected := make(question.MultiChoice, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			choice, err := resolveChoice(q, part)
			if err != nil {
				return nil, err
			}
			selected = append(selected, choice)
		}
		return selected, nil

	default:
		return question.Text(line), nil
	}
}

// resolveChoice maps input to a declared choice, by 1-based index or by
// exact label.
func resolveChoice(q question.Question, input string) (string, error) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(q.Choices) {
			return "", fmt.Errorf("choice %d out of range 1-%d", n, len(q.Choices))
		}
		return q.Choices[n-1], nil
	}
	for _, choice := range q.Choices {
		if choice == input {
			return choice, nil
		}
	}
	return "", fmt.Errorf("%q is not one of the choices", input)
}
