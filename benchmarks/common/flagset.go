package common

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeu5/tabular-td/policies"
	"github.com/zeu5/tabular-td/util"
)

type Flags struct {
	GridFlags    `yaml:"grid" json:"grid"`
	LearnerFlags `yaml:"learner" json:"learner"`
	RunFlags     `yaml:"run" json:"run"`

	SavePath string `yaml:"save_path" json:"save_path"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type GridFlags struct {
	Rows     int      `yaml:"rows" json:"rows"`
	Cols     int      `yaml:"cols" json:"cols"`
	Hells    []string `yaml:"hells" json:"hells"`
	Treasure string   `yaml:"treasure" json:"treasure"`
}

// LearnerFlags overrides the per-variant learner defaults. A zero learning
// rate keeps the default of each variant.
type LearnerFlags struct {
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	RewardDecay  float64 `yaml:"reward_decay" json:"reward_decay"`
	EGreedy      float64 `yaml:"e_greedy" json:"e_greedy"`
	TraceDecay   float64 `yaml:"trace_decay" json:"trace_decay"`
	Seed         uint64  `yaml:"seed" json:"seed"`

	// zero the eligibility trace at the start of every episode
	ResetTraceEachEpisode bool `yaml:"reset_trace_each_episode" json:"reset_trace_each_episode"`
}

type RunFlags struct {
	NumRuns              int           `yaml:"num_runs" json:"num_runs"`
	Episodes             int           `yaml:"episodes" json:"episodes"`
	Horizon              int           `yaml:"horizon" json:"horizon"`
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors" json:"max_consecutive_errors"`
	EpisodeTimeout       time.Duration `yaml:"episode_timeout" json:"episode_timeout"`
	SmoothingWindow      int           `yaml:"smoothing_window" json:"smoothing_window"`
}

func DefaultFlags() *Flags {
	learner := policies.DefaultConfig(policies.QLearning)
	return &Flags{
		GridFlags: GridFlags{
			Rows:     4,
			Cols:     4,
			Hells:    []string{"1,2", "2,1"},
			Treasure: "2,2",
		},
		LearnerFlags: LearnerFlags{
			LearningRate: 0,
			RewardDecay:  learner.RewardDecay,
			EGreedy:      learner.Epsilon,
			TraceDecay:   learner.TraceDecay,
		},
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:              1,
			Episodes:             100,
			Horizon:              200,
			MaxConsecutiveErrors: 20,
			EpisodeTimeout:       10 * time.Second,
			SmoothingWindow:      10,
		},
		Debug: false,
	}
}

// LoadFile overlays the YAML file at path onto the flags
func (f *Flags) LoadFile(p string) error {
	bs, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(bs, f); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", p, err)
	}
	return nil
}

// LearnerConfig builds the learner configuration of the variant from the flags
func (f *Flags) LearnerConfig(v policies.Variant) policies.Config {
	c := policies.DefaultConfig(v)
	if f.LearningRate > 0 {
		c.LearningRate = f.LearningRate
	}
	c.RewardDecay = f.RewardDecay
	c.Epsilon = f.EGreedy
	c.TraceDecay = f.TraceDecay
	c.Seed = f.ExperimentSeed(variantIndex(v))
	return c
}

// ExperimentSeed offsets the seed of the experiment at index so experiments
// compared in one run draw from different streams. The random baseline is
// index 0, the variants follow in policies.Variants order.
func (f *Flags) ExperimentSeed(index int) uint64 {
	if f.Seed == 0 {
		return 0
	}
	return f.Seed + uint64(index)
}

func variantIndex(v policies.Variant) int {
	for i, other := range policies.Variants {
		if other == v {
			return i + 1
		}
	}
	return 0
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
