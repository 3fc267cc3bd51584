package gridworld

import (
	"fmt"

	"github.com/zeu5/tabular-td/analysis"
	"github.com/zeu5/tabular-td/benchmarks/common"
	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/policies"
)

// GridConfigFromFlags builds the grid described by the flags
func GridConfigFromFlags(flags *common.Flags) (GridConfig, error) {
	config := DefaultGridConfig()
	config.Rows = flags.Rows
	config.Cols = flags.Cols
	config.Hells = make([]Position, 0, len(flags.Hells))
	for _, h := range flags.Hells {
		p, err := ParsePosition(h)
		if err != nil {
			return config, err
		}
		config.Hells = append(config.Hells, p)
	}
	treasure, err := ParsePosition(flags.Treasure)
	if err != nil {
		return config, err
	}
	config.Treasure = treasure
	return config, config.Validate()
}

// Outcomes classifies gridworld episodes by how they ended
func Outcomes(config GridConfig) []analysis.OutcomeSpec {
	out := []analysis.OutcomeSpec{
		analysis.ReachedState("Treasure", config.Treasure.String()),
	}
	for _, h := range config.Hells {
		out = append(out, analysis.ReachedState("Hell_"+h.String(), h.String()))
	}
	return out
}

// PrepareComparison compares the random baseline against every
// temporal-difference variant on the same grid.
func PrepareComparison(flags *common.Flags) (*core.Comparison, error) {
	config, err := GridConfigFromFlags(flags)
	if err != nil {
		return nil, err
	}
	envConstructor := NewGridEnvConstructor(config)

	cmp := core.NewComparison()
	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzer(flags.SavePath, flags.Episodes-10), analysis.NewDebugComparatorConstructor(flags.SavePath))
	}
	cmp.AddAnalysis("Returns", analysis.NewReturnAnalyzer(), analysis.NewReturnComparatorConstructor(flags.SavePath, flags.SmoothingWindow))
	cmp.AddAnalysis("TDError", analysis.NewTDErrorAnalyzer(), analysis.NewTDErrorComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Coverage", analysis.NewCoverageAnalyzer(), analysis.NewCoverageComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Outcomes", analysis.NewOutcomeAnalyzer(Outcomes(config)...), analysis.NewOutcomeComparatorConstructor(flags.SavePath))

	random, _ := (&policies.RandomPolicyConstructor{Seed: flags.ExperimentSeed(0)}).NewPolicy()
	cmp.AddExperiment(&core.Experiment{
		Name:        "Random",
		Environment: envConstructor.NewEnvironment(0),
		Policy:      random,
	})
	for i, v := range policies.Variants {
		policy, err := policies.NewTDPolicyConstructor(flags.LearnerConfig(v), Moves(), flags.ResetTraceEachEpisode).NewPolicy()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v, err)
		}
		cmp.AddExperiment(&core.Experiment{
			Name:        string(v),
			Environment: envConstructor.NewEnvironment(i + 1),
			Policy:      policy,
		})
	}
	return cmp, nil
}

// PrepareExperiment trains a single variant on the grid
func PrepareExperiment(flags *common.Flags, v policies.Variant) (*core.Experiment, *policies.TDPolicy, GridConfig, error) {
	config, err := GridConfigFromFlags(flags)
	if err != nil {
		return nil, nil, config, err
	}
	env, err := NewGridEnv(config)
	if err != nil {
		return nil, nil, config, err
	}
	policy, err := policies.NewTDPolicy(flags.LearnerConfig(v), Moves(), flags.ResetTraceEachEpisode)
	if err != nil {
		return nil, nil, config, err
	}
	return &core.Experiment{
		Name:        string(v),
		Environment: env,
		Policy:      policy,
	}, policy, config, nil
}
