package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tabular-td",
		Short:         "Tabular temporal-difference learning benchmarks",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := UpdateFlags(cmd); err != nil {
				return err
			}
			setupLogging(flags.Debug)
			if err := flags.Record(); err != nil {
				slog.Warn("cannot record config", "save_path", flags.SavePath, "error", err)
			}
			return nil
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		GridworldCommand(),
	)

	return cmd
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
