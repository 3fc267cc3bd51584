package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zeu5/tabular-td/benchmarks/gridworld"
	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/policies"
	"github.com/zeu5/tabular-td/util"
)

func GridworldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridworld",
		Short: "Run gridworld benchmarks",
	}

	cmd.AddCommand(
		gridworldCompareCommand(),
		gridworldShowCommand(),
	)

	return cmd
}

func runConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:                   flags.Episodes,
		Horizon:                    flags.Horizon,
		ThresholdConsecutiveErrors: flags.MaxConsecutiveErrors,
		EpisodeTimeout:             flags.EpisodeTimeout,
	}
}

// interruptContext is cancelled on an interrupt signal
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func gridworldCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cov",
		Short: "Compare the random baseline with Q-learning, Sarsa and Sarsa(lambda)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := gridworld.PrepareComparison(flags)
			if err != nil {
				return err
			}

			ctx, cancel := interruptContext()
			defer cancel()

			printer := util.NewTerminalPrinter(os.Stdout, 500*time.Millisecond)
			printer.Start(ctx)
			err = cmp.Run(ctx, flags.NumRuns, runConfig(), printer)
			printer.Stop()
			return err
		},
	}

	return cmd
}

func gridworldShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "show <variant>",
		Short:     "Train one variant and print its greedy policy",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(policies.QLearning), string(policies.Sarsa), string(policies.SarsaLambda)},
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := policies.ParseVariant(args[0])
			if err != nil {
				return err
			}
			exp, policy, config, err := gridworld.PrepareExperiment(flags, variant)
			if err != nil {
				return err
			}

			ctx, cancel := interruptContext()
			defer cancel()

			result := exp.Run(ctx, 0, runConfig(), nil, nil)
			if result.IsError() {
				return result.Error
			}
			out := cmd.OutOrStdout()
			learned := policy.Learner().Config()
			fmt.Fprintf(out, "%s (learning rate %v, reward decay %v, e-greedy %v, seed %d): %d episodes, %d reached a terminal state, %d states discovered\n",
				exp.Name, learned.LearningRate, learned.RewardDecay, learned.Epsilon, learned.Seed,
				result.CompletedEpisodes, result.TerminalEpisodes, len(policy.Learner().States()))
			colors := false
			if f, ok := out.(*os.File); ok {
				colors = isatty.IsTerminal(f.Fd())
			}
			gridworld.RenderPolicy(out, config, policy.Learner().Greedy, colors)
			return nil
		},
	}

	return cmd
}
