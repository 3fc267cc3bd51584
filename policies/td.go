package policies

import (
	"fmt"

	"github.com/zeu5/tabular-td/core"
)

// TDErrorKey is the Step.Misc entry holding the temporal-difference error of
// the update made for that step.
const TDErrorKey = "td_error"

// TDPolicy drives a Learner keyed by state and action hashes from the
// experiment runner. Terminal states are recorded as the runner presents them.
type TDPolicy struct {
	config     Config
	actions    []string
	actionsMap map[string]core.Action
	resetTrace bool
	runs       int

	learner   *Learner[string, string]
	terminals map[string]bool
}

var _ core.Policy = &TDPolicy{}

// NewTDPolicy creates a policy over the fixed action set. When resetTrace is
// set the eligibility trace is zeroed at the start of every episode.
func NewTDPolicy(config Config, actions []core.Action, resetTrace bool) (*TDPolicy, error) {
	p := &TDPolicy{
		config:     config,
		actions:    make([]string, len(actions)),
		actionsMap: make(map[string]core.Action, len(actions)),
		resetTrace: resetTrace,
		terminals:  make(map[string]bool),
	}
	for i, a := range actions {
		p.actions[i] = a.Hash()
		p.actionsMap[a.Hash()] = a
	}
	learner, err := New(p.actions, config, func(s string) bool {
		return p.terminals[s]
	})
	if err != nil {
		return nil, err
	}
	p.learner = learner
	return p, nil
}

// Learner exposes the underlying table learner
func (p *TDPolicy) Learner() *Learner[string, string] {
	return p.learner
}

// Reset discards everything learned. Each call starts a new run with its
// own seed derived from the configured one.
func (p *TDPolicy) Reset() {
	p.learner.Reset(RunSeed(p.config.Seed, p.runs))
	p.runs++
	p.terminals = make(map[string]bool)
}

func (p *TDPolicy) ResetEpisode(_ *core.EpisodeContext) {
	if p.resetTrace {
		p.learner.ResetTrace()
	}
}

func (p *TDPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (p *TDPolicy) observe(state core.State) string {
	h := state.Hash()
	p.terminals[h] = state.Terminal()
	return h
}

func (p *TDPolicy) PickAction(_ *core.StepContext, state core.State, _ []core.Action) core.Action {
	return p.actionsMap[p.learner.ChooseAction(p.observe(state))]
}

func (p *TDPolicy) UpdateStep(_ *core.StepContext, step *core.Step) error {
	if step.Action == nil {
		return fmt.Errorf("%w: nil action", ErrUnknownAction)
	}
	t := Transition[string, string]{
		State:  p.observe(step.State),
		Action: step.Action.Hash(),
		Reward: step.Reward,
		Next:   p.observe(step.NextState),
	}
	if step.NextAction != nil {
		t.NextAction = step.NextAction.Hash()
	}
	if err := p.learner.Learn(t); err != nil {
		return err
	}
	if step.Misc == nil {
		step.Misc = make(map[string]interface{})
	}
	step.Misc[TDErrorKey] = p.learner.LastTDError()
	return nil
}

type TDPolicyConstructor struct {
	config     Config
	actions    []core.Action
	resetTrace bool
}

var _ core.PolicyConstructor = &TDPolicyConstructor{}

func NewTDPolicyConstructor(config Config, actions []core.Action, resetTrace bool) *TDPolicyConstructor {
	return &TDPolicyConstructor{
		config:     config,
		actions:    actions,
		resetTrace: resetTrace,
	}
}

func (c *TDPolicyConstructor) NewPolicy() (core.Policy, error) {
	return NewTDPolicy(c.config, c.actions, c.resetTrace)
}
