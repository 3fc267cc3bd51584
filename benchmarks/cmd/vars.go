package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zeu5/tabular-td/benchmarks/common"
)

var (
	flags      *common.Flags = common.DefaultFlags()
	configFile string
	// parsed into a fresh copy of the defaults so a config file can sit in between
	cli = common.DefaultFlags()
)

func AddFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&configFile, "config", "", "YAML file with settings, overridden by explicit flags")
	fs.StringVar(&cli.SavePath, "save-path", cli.SavePath, "Path to save results")
	fs.BoolVar(&cli.Debug, "debug", cli.Debug, "Debug logging and trace dumps of the last episodes")

	fs.IntVar(&cli.Rows, "rows", cli.Rows, "Number of grid rows")
	fs.IntVar(&cli.Cols, "cols", cli.Cols, "Number of grid columns")
	fs.StringSliceVar(&cli.Hells, "hell", cli.Hells, "Hell cell as row,col (repeatable)")
	fs.StringVar(&cli.Treasure, "treasure", cli.Treasure, "Treasure cell as row,col")

	fs.Float64Var(&cli.LearningRate, "learning-rate", cli.LearningRate, "Learning rate, 0 keeps the per-variant default")
	fs.Float64Var(&cli.RewardDecay, "reward-decay", cli.RewardDecay, "Discount factor gamma")
	fs.Float64Var(&cli.EGreedy, "e-greedy", cli.EGreedy, "Probability of exploiting the greedy action")
	fs.Float64Var(&cli.TraceDecay, "trace-decay", cli.TraceDecay, "Eligibility trace decay lambda")
	fs.Uint64Var(&cli.Seed, "seed", cli.Seed, "Random seed, 0 seeds from the clock")
	fs.BoolVar(&cli.ResetTraceEachEpisode, "reset-trace", cli.ResetTraceEachEpisode, "Zero the eligibility trace at the start of every episode")

	fs.IntVar(&cli.NumRuns, "num-runs", cli.NumRuns, "Number of runs")
	fs.IntVar(&cli.Episodes, "episodes", cli.Episodes, "Number of episodes")
	fs.IntVar(&cli.Horizon, "horizon", cli.Horizon, "Maximum steps per episode")
	fs.IntVar(&cli.MaxConsecutiveErrors, "max-consecutive-errors", cli.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	fs.DurationVar(&cli.EpisodeTimeout, "episode-timeout", cli.EpisodeTimeout, "Episode timeout")
	fs.IntVar(&cli.SmoothingWindow, "smoothing-window", cli.SmoothingWindow, "Moving average window of the returns chart")
}

// UpdateFlags resolves the settings: defaults, then the config file, then
// every flag set on the command line.
func UpdateFlags(cmd *cobra.Command) error {
	if configFile != "" {
		if err := flags.LoadFile(configFile); err != nil {
			return err
		}
	}
	set := map[string]func(){
		"save-path":              func() { flags.SavePath = cli.SavePath },
		"debug":                  func() { flags.Debug = cli.Debug },
		"rows":                   func() { flags.Rows = cli.Rows },
		"cols":                   func() { flags.Cols = cli.Cols },
		"hell":                   func() { flags.Hells = cli.Hells },
		"treasure":               func() { flags.Treasure = cli.Treasure },
		"learning-rate":          func() { flags.LearningRate = cli.LearningRate },
		"reward-decay":           func() { flags.RewardDecay = cli.RewardDecay },
		"e-greedy":               func() { flags.EGreedy = cli.EGreedy },
		"trace-decay":            func() { flags.TraceDecay = cli.TraceDecay },
		"seed":                   func() { flags.Seed = cli.Seed },
		"reset-trace":            func() { flags.ResetTraceEachEpisode = cli.ResetTraceEachEpisode },
		"num-runs":               func() { flags.NumRuns = cli.NumRuns },
		"episodes":               func() { flags.Episodes = cli.Episodes },
		"horizon":                func() { flags.Horizon = cli.Horizon },
		"max-consecutive-errors": func() { flags.MaxConsecutiveErrors = cli.MaxConsecutiveErrors },
		"episode-timeout":        func() { flags.EpisodeTimeout = cli.EpisodeTimeout },
		"smoothing-window":       func() { flags.SmoothingWindow = cli.SmoothingWindow },
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if apply, ok := set[f.Name]; ok {
			apply()
		}
	})
	return nil
}
