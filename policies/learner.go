package policies

import (
	"errors"
	"fmt"
	"time"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoActions       = errors.New("action set is empty")
	ErrDuplicateAction = errors.New("duplicate action in action set")
	ErrUnknownAction   = errors.New("action not in action set")
	ErrNoTrace         = errors.New("learner has no eligibility trace")
)

// Transition is one observed step (s, a, r, s', a').
// NextAction is ignored by Q-learning.
type Transition[S, A comparable] struct {
	State      S
	Action     A
	Reward     float64
	Next       S
	NextAction A
}

// Learner is a tabular temporal-difference agent. The update rule is chosen by
// Config.Variant. A Learner is not safe for concurrent use.
type Learner[S, A comparable] struct {
	config   Config
	actions  []A
	index    map[A]int
	terminal func(S) bool

	table *ValueTable[S]
	// eligibility trace, only for SarsaLambda. Same row set as table.
	trace *ValueTable[S]

	lastTDError float64
	rand        *erand.Rand
}

// New creates a Learner over the given action set. terminal reports whether a
// successor state ends the episode; nil treats every state as non-terminal.
func New[S, A comparable](actions []A, config Config, terminal func(S) bool) (*Learner[S, A], error) {
	if len(actions) == 0 {
		return nil, ErrNoActions
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	index := make(map[A]int, len(actions))
	for i, a := range actions {
		if _, ok := index[a]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateAction, a)
		}
		index[a] = i
	}
	if terminal == nil {
		terminal = func(S) bool { return false }
	}

	l := &Learner[S, A]{
		config:   config,
		actions:  append([]A(nil), actions...),
		index:    index,
		terminal: terminal,
	}
	l.Reset(config.Seed)
	return l, nil
}

// Reset forgets every visited state and the eligibility trace, and reseeds
// action selection. Seed 0 seeds from the clock.
func (l *Learner[S, A]) Reset(seed uint64) {
	l.config.Seed = seed
	l.table = NewValueTable[S](len(l.actions))
	l.trace = nil
	if l.config.Variant == SarsaLambda {
		l.trace = l.table.ZeroCopy()
	}
	l.lastTDError = 0
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	l.rand = erand.New(erand.NewSource(seed))
}

// RunSeed derives the seed of the given run from a base seed so that
// repeated runs draw different action sequences. A zero base stays zero.
func RunSeed(base uint64, run int) uint64 {
	if base == 0 {
		return 0
	}
	return base + uint64(run)*runSeedStride
}

// runs are spaced this far apart, experiment offsets stay below it
const runSeedStride = 1000

func (l *Learner[S, A]) Variant() Variant {
	return l.config.Variant
}

func (l *Learner[S, A]) Config() Config {
	return l.config
}

func (l *Learner[S, A]) Actions() []A {
	return append([]A(nil), l.actions...)
}

// States returns every state discovered so far
func (l *Learner[S, A]) States() []S {
	return l.table.States()
}

func (l *Learner[S, A]) ensureRow(state S) {
	if l.table.EnsureRow(state) && l.trace != nil {
		l.trace.EnsureRow(state)
	}
}

func (l *Learner[S, A]) column(action A) (int, error) {
	i, ok := l.index[action]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownAction, action)
	}
	return i, nil
}

// ChooseAction picks an action epsilon-greedily. With probability epsilon the
// best known action is returned, ties broken uniformly at random; otherwise an
// action is drawn uniformly from the action set.
func (l *Learner[S, A]) ChooseAction(state S) A {
	l.ensureRow(state)
	if l.rand.Float64() < l.config.Epsilon {
		row := l.table.rows[state]
		best := -1
		for _, i := range l.rand.Perm(len(row)) {
			if best < 0 || row[i] > row[best] {
				best = i
			}
		}
		return l.actions[best]
	}
	return l.actions[l.rand.Intn(len(l.actions))]
}

// Learn applies one temporal-difference update for the transition.
// The table is left unchanged when an error is returned.
func (l *Learner[S, A]) Learn(t Transition[S, A]) error {
	col, err := l.column(t.Action)
	if err != nil {
		return err
	}
	terminal := l.terminal(t.Next)
	nextCol := 0
	if !terminal && l.config.Variant.OnPolicy() {
		if nextCol, err = l.column(t.NextAction); err != nil {
			return fmt.Errorf("next action: %w", err)
		}
	}

	l.ensureRow(t.State)
	l.ensureRow(t.Next)

	predicted := l.table.rows[t.State][col]
	target := t.Reward
	if !terminal {
		target += l.config.RewardDecay * l.bootstrap(t.Next, nextCol)
	}
	tdError := target - predicted
	l.lastTDError = tdError

	switch l.config.Variant {
	case SarsaLambda:
		l.trace.rows[t.State][col] += 1
		l.table.AddScaled(l.config.LearningRate*tdError, l.trace)
		l.trace.Scale(l.config.RewardDecay * l.config.TraceDecay)
	default:
		l.table.rows[t.State][col] = predicted + l.config.LearningRate*tdError
	}
	return nil
}

func (l *Learner[S, A]) bootstrap(next S, nextCol int) float64 {
	if l.config.Variant == QLearning {
		return floats.Max(l.table.rows[next])
	}
	return l.table.rows[next][nextCol]
}

// LastTDError returns the temporal-difference error of the latest Learn call
func (l *Learner[S, A]) LastTDError() float64 {
	return l.lastTDError
}

func (l *Learner[S, A]) Value(state S, action A) (float64, error) {
	col, err := l.column(action)
	if err != nil {
		return 0, err
	}
	return l.table.Get(state, col)
}

// Row returns the action values of the state in action set order
func (l *Learner[S, A]) Row(state S) ([]float64, error) {
	return l.table.Row(state)
}

func (l *Learner[S, A]) Eligibility(state S, action A) (float64, error) {
	if l.trace == nil {
		return 0, ErrNoTrace
	}
	col, err := l.column(action)
	if err != nil {
		return 0, err
	}
	return l.trace.Get(state, col)
}

// Greedy returns the first action with the highest value in the state.
// The second result is false if the state was never visited.
func (l *Learner[S, A]) Greedy(state S) (A, bool) {
	row, ok := l.table.rows[state]
	if !ok {
		var zero A
		return zero, false
	}
	return l.actions[floats.MaxIdx(row)], true
}

// ResetTrace zeroes the eligibility trace, keeping its rows
func (l *Learner[S, A]) ResetTrace() {
	if l.trace != nil {
		l.trace.Zero()
	}
}
