package policies

import (
	"time"

	erand "golang.org/x/exp/rand"

	"github.com/zeu5/tabular-td/core"
)

// RandomPolicy picks uniformly among the offered actions and never learns
type RandomPolicy struct {
	seed uint64
	runs int
	rand *erand.Rand
}

var _ core.Policy = &RandomPolicy{}

// NewRandomPolicy creates a RandomPolicy, seed 0 seeds from the clock
func NewRandomPolicy(seed uint64) *RandomPolicy {
	r := &RandomPolicy{seed: seed}
	r.reseed(seed)
	return r
}

func (r *RandomPolicy) reseed(seed uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r.rand = erand.New(erand.NewSource(seed))
}

// Reset starts a new run with a seed derived from the configured one
func (r *RandomPolicy) Reset() {
	r.reseed(RunSeed(r.seed, r.runs))
	r.runs++
}

func (r *RandomPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (r *RandomPolicy) PickAction(_ *core.StepContext, _ core.State, actions []core.Action) core.Action {
	if len(actions) == 0 {
		return nil
	}
	return actions[r.rand.Intn(len(actions))]
}

func (r *RandomPolicy) UpdateStep(_ *core.StepContext, _ *core.Step) error {
	return nil
}

func (r *RandomPolicy) ResetEpisode(_ *core.EpisodeContext) {}

type RandomPolicyConstructor struct {
	Seed uint64
}

var _ core.PolicyConstructor = &RandomPolicyConstructor{}

func (r *RandomPolicyConstructor) NewPolicy() (core.Policy, error) {
	return NewRandomPolicy(r.Seed), nil
}
