package policies

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid learner config")

// Variant selects the temporal-difference update rule of a Learner
type Variant string

const (
	QLearning   Variant = "qlearning"
	Sarsa       Variant = "sarsa"
	SarsaLambda Variant = "sarsa-lambda"
)

// Variants lists the supported update rules in a stable order
var Variants = []Variant{QLearning, Sarsa, SarsaLambda}

func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, s)
}

// OnPolicy reports whether the variant bootstraps from the next action actually taken
func (v Variant) OnPolicy() bool {
	return v == Sarsa || v == SarsaLambda
}

// TraceKind is the eligibility trace update applied at the visited pair.
// Only accumulating traces are implemented.
type TraceKind string

const AccumulatingTrace TraceKind = "accumulating"

// Config holds the hyperparameters of a Learner
type Config struct {
	Variant      Variant `yaml:"variant" json:"variant"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	RewardDecay  float64 `yaml:"reward_decay" json:"reward_decay"`

	// Epsilon is the probability of exploiting the greedy action
	Epsilon float64 `yaml:"e_greedy" json:"e_greedy"`

	TraceDecay float64   `yaml:"trace_decay" json:"trace_decay"`
	Trace      TraceKind `yaml:"trace" json:"trace"`

	// Seed of the action selection RNG, 0 seeds from the clock
	Seed uint64 `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the default hyperparameters for the variant
func DefaultConfig(v Variant) Config {
	c := Config{
		Variant:      v,
		LearningRate: 0.01,
		RewardDecay:  0.9,
		Epsilon:      0.8,
		TraceDecay:   0.9,
		Trace:        AccumulatingTrace,
	}
	if v == Sarsa {
		c.LearningRate = 0.02
	}
	return c
}

func (c Config) Validate() error {
	if _, err := ParseVariant(string(c.Variant)); err != nil {
		return err
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %v", ErrInvalidConfig, c.LearningRate)
	}
	if c.RewardDecay < 0 || c.RewardDecay > 1 {
		return fmt.Errorf("%w: reward decay must be in [0, 1], got %v", ErrInvalidConfig, c.RewardDecay)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: e-greedy must be in [0, 1], got %v", ErrInvalidConfig, c.Epsilon)
	}
	if c.Variant == SarsaLambda {
		if c.TraceDecay < 0 || c.TraceDecay > 1 {
			return fmt.Errorf("%w: trace decay must be in [0, 1], got %v", ErrInvalidConfig, c.TraceDecay)
		}
		if c.Trace != "" && c.Trace != AccumulatingTrace {
			return fmt.Errorf("%w: unsupported trace kind %q", ErrInvalidConfig, c.Trace)
		}
	}
	return nil
}
