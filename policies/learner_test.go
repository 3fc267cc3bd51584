package policies

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testActions = []string{"a0", "a1", "a2"}

func newTestLearner(t *testing.T, v Variant, modify func(*Config), terminal func(string) bool) *Learner[string, string] {
	t.Helper()
	config := DefaultConfig(v)
	config.Seed = 42
	if modify != nil {
		modify(&config)
	}
	l, err := New(testActions, config, terminal)
	require.NoError(t, err)
	return l
}

func setRow(t *testing.T, l *Learner[string, string], state string, values ...float64) {
	t.Helper()
	l.ensureRow(state)
	for i, v := range values {
		require.NoError(t, l.table.Set(state, i, v))
	}
}

func value(t *testing.T, l *Learner[string, string], state, action string) float64 {
	t.Helper()
	v, err := l.Value(state, action)
	require.NoError(t, err)
	return v
}

func TestNewRejectsDegenerateActionSets(t *testing.T) {
	_, err := New[string, string](nil, DefaultConfig(QLearning), nil)
	assert.ErrorIs(t, err, ErrNoActions)

	_, err = New[string, string]([]string{"a", "b", "a"}, DefaultConfig(QLearning), nil)
	assert.ErrorIs(t, err, ErrDuplicateAction)

	config := DefaultConfig(Sarsa)
	config.LearningRate = -1
	_, err = New[string, string](testActions, config, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewCopiesActions(t *testing.T) {
	actions := []string{"x", "y"}
	l, err := New[string, string](actions, DefaultConfig(QLearning), nil)
	require.NoError(t, err)
	actions[0] = "z"
	assert.Equal(t, []string{"x", "y"}, l.Actions())
}

func TestRowGrowthInvariant(t *testing.T) {
	for _, v := range Variants {
		t.Run(string(v), func(t *testing.T) {
			l := newTestLearner(t, v, func(c *Config) { c.Epsilon = 0.5 }, func(s string) bool { return s == "s9" })
			states := []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9"}

			s := "s0"
			a := l.ChooseAction(s)
			for i := 1; i < 200; i++ {
				next := states[(i*7)%len(states)]
				nextAction := l.ChooseAction(next)
				require.NoError(t, l.Learn(Transition[string, string]{
					State: s, Action: a, Reward: float64(i%3) - 1, Next: next, NextAction: nextAction,
				}))
				s, a = next, nextAction
			}

			for _, state := range l.States() {
				row, err := l.Row(state)
				require.NoError(t, err)
				assert.Len(t, row, len(testActions))
			}
			assert.Equal(t, len(states), len(l.States()))
			if v == SarsaLambda {
				assert.ElementsMatch(t, l.table.States(), l.trace.States())
				for _, state := range l.trace.States() {
					row, err := l.trace.Row(state)
					require.NoError(t, err)
					assert.Len(t, row, len(testActions))
				}
			} else {
				assert.Nil(t, l.trace)
			}
		})
	}
}

func TestChooseActionExploitBreaksTiesUniformly(t *testing.T) {
	l := newTestLearner(t, QLearning, func(c *Config) { c.Epsilon = 1 }, nil)
	setRow(t, l, "s", 1, 5, 5)

	counts := make(map[string]int)
	trials := 10000
	for i := 0; i < trials; i++ {
		counts[l.ChooseAction("s")]++
	}

	assert.Zero(t, counts["a0"])
	assert.InDelta(t, 0.5, float64(counts["a1"])/float64(trials), 0.03)
	assert.InDelta(t, 0.5, float64(counts["a2"])/float64(trials), 0.03)
}

func TestChooseActionExploreIsUniform(t *testing.T) {
	l := newTestLearner(t, QLearning, func(c *Config) { c.Epsilon = 0 }, nil)
	setRow(t, l, "s", 100, -3, 0)

	counts := make(map[string]int)
	trials := 12000
	for i := 0; i < trials; i++ {
		counts[l.ChooseAction("s")]++
	}

	for _, a := range testActions {
		assert.InDelta(t, 1.0/3, float64(counts[a])/float64(trials), 0.03, "action %s", a)
	}
}

func TestChooseActionGrowsTableIdempotently(t *testing.T) {
	l := newTestLearner(t, SarsaLambda, nil, nil)

	l.ChooseAction("new")
	row, err := l.Row("new")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, row)
	e, err := l.Eligibility("new", "a1")
	require.NoError(t, err)
	assert.Zero(t, e)

	setRow(t, l, "new", 1, 2, 3)
	l.ChooseAction("new")
	l.ChooseAction("new")
	row, err = l.Row("new")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, row)
	assert.Equal(t, 1, len(l.States()))
}

func TestQLearningUpdate(t *testing.T) {
	l, err := New[string, string]([]string{"a0", "a1"}, Config{
		Variant:      QLearning,
		LearningRate: 0.1,
		RewardDecay:  0.9,
		Epsilon:      0.8,
	}, nil)
	require.NoError(t, err)
	l.ensureRow("s")
	l.ensureRow("s_")
	require.NoError(t, l.table.Set("s_", 0, 2))
	require.NoError(t, l.table.Set("s_", 1, 4))

	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "s_"}))

	assert.InDelta(t, 0.46, value(t, l, "s", "a0"), 1e-12)
	assert.Zero(t, value(t, l, "s", "a1"))
	assert.InDelta(t, 4.6, l.LastTDError(), 1e-12)
	// the successor is only read
	assert.Equal(t, 2.0, value(t, l, "s_", "a0"))
	assert.Equal(t, 4.0, value(t, l, "s_", "a1"))
}

func TestSarsaBootstrapsFromNextAction(t *testing.T) {
	l := newTestLearner(t, Sarsa, func(c *Config) { c.LearningRate = 0.1 }, nil)
	setRow(t, l, "s_", 2, 4, 8)

	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a1", Reward: 1, Next: "s_", NextAction: "a0"}))

	// target = 1 + 0.9 * 2
	assert.InDelta(t, 0.28, value(t, l, "s", "a1"), 1e-12)
	assert.Zero(t, value(t, l, "s", "a0"))
}

func TestTerminalSuccessorDoesNotBootstrap(t *testing.T) {
	terminal := func(s string) bool { return s == "end" }
	for _, v := range Variants {
		t.Run(string(v), func(t *testing.T) {
			l := newTestLearner(t, v, func(c *Config) { c.LearningRate = 0.1 }, terminal)

			require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "end"}))
			assert.InDelta(t, 0.1, value(t, l, "s", "a0"), 1e-12)
			assert.InDelta(t, 1.0, l.LastTDError(), 1e-12)
			row, err := l.Row("end")
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 0, 0}, row)

			other := newTestLearner(t, v, func(c *Config) { c.LearningRate = 0.1 }, terminal)
			setRow(t, other, "end", 50, 60, 70)
			require.NoError(t, other.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "end", NextAction: "a2"}))
			assert.InDelta(t, 0.1, value(t, other, "s", "a0"), 1e-12)
		})
	}
}

func TestSarsaLambdaPropagatesToEarlierPairs(t *testing.T) {
	configure := func(c *Config) {
		c.LearningRate = 0.1
		c.RewardDecay = 0.9
		c.TraceDecay = 0.9
	}
	lambda := newTestLearner(t, SarsaLambda, configure, nil)
	sarsa := newTestLearner(t, Sarsa, configure, nil)

	steps := []Transition[string, string]{
		{State: "s1", Action: "a1", Reward: 1, Next: "s2", NextAction: "a2"},
		{State: "s2", Action: "a2", Reward: 1, Next: "s3", NextAction: "a0"},
	}
	for _, l := range []*Learner[string, string]{lambda, sarsa} {
		for _, step := range steps {
			require.NoError(t, l.Learn(step))
		}
	}

	// first update: error 1, trace 1; second: error 1 and the first pair's trace decayed to 0.81
	assert.InDelta(t, 0.1+0.1*0.81, value(t, lambda, "s1", "a1"), 1e-12)
	assert.InDelta(t, 0.1, value(t, lambda, "s2", "a2"), 1e-12)
	assert.InDelta(t, 0.1, value(t, sarsa, "s1", "a1"), 1e-12)
	assert.InDelta(t, 0.1, value(t, sarsa, "s2", "a2"), 1e-12)
	assert.Zero(t, value(t, lambda, "s1", "a0"))
}

func TestSarsaLambdaTraceDecay(t *testing.T) {
	l := newTestLearner(t, SarsaLambda, func(c *Config) {
		c.RewardDecay = 0.9
		c.TraceDecay = 0.5
	}, nil)
	decay := 0.9 * 0.5

	require.NoError(t, l.Learn(Transition[string, string]{State: "first", Action: "a0", Reward: 0, Next: "x", NextAction: "a1"}))
	prev, err := l.Eligibility("first", "a0")
	require.NoError(t, err)
	assert.InDelta(t, decay, prev, 1e-12)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Learn(Transition[string, string]{State: "x", Action: "a1", Reward: 1, Next: "x", NextAction: "a1"}))
		cur, err := l.Eligibility("first", "a0")
		require.NoError(t, err)
		assert.Less(t, cur, prev)
		assert.InDelta(t, prev*decay, cur, 1e-12)
		prev = cur
	}
	assert.InDelta(t, math.Pow(decay, 6), prev, 1e-12)
}

func TestSarsaLambdaAccumulatesRepeatedVisits(t *testing.T) {
	l := newTestLearner(t, SarsaLambda, func(c *Config) {
		c.RewardDecay = 1
		c.TraceDecay = 1
	}, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a2", Reward: 0, Next: "s", NextAction: "a2"}))
	}
	e, err := l.Eligibility("s", "a2")
	require.NoError(t, err)
	assert.Equal(t, 3.0, e)
}

func TestResetTraceKeepsRows(t *testing.T) {
	l := newTestLearner(t, SarsaLambda, nil, nil)
	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "t", NextAction: "a1"}))
	before := value(t, l, "s", "a0")

	l.ResetTrace()

	assert.ElementsMatch(t, []string{"s", "t"}, l.trace.States())
	e, err := l.Eligibility("s", "a0")
	require.NoError(t, err)
	assert.Zero(t, e)
	assert.Equal(t, before, value(t, l, "s", "a0"))
}

func TestLearnRejectsUnknownActions(t *testing.T) {
	l := newTestLearner(t, Sarsa, nil, func(s string) bool { return s == "end" })

	err := l.Learn(Transition[string, string]{State: "s", Action: "jump", Reward: 1, Next: "t", NextAction: "a0"})
	assert.ErrorIs(t, err, ErrUnknownAction)
	err = l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "t", NextAction: "jump"})
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Empty(t, l.States())

	// the next action is not needed when the episode ends
	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "end"}))
}

func TestQLearningIgnoresNextAction(t *testing.T) {
	l := newTestLearner(t, QLearning, nil, nil)
	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "t", NextAction: "not-an-action"}))
}

func TestLookupErrors(t *testing.T) {
	l := newTestLearner(t, QLearning, nil, nil)

	_, err := l.Value("never", "a0")
	assert.ErrorIs(t, err, ErrUnknownState)
	_, err = l.Value("never", "nope")
	assert.ErrorIs(t, err, ErrUnknownAction)
	_, err = l.Eligibility("never", "a0")
	assert.ErrorIs(t, err, ErrNoTrace)
	_, ok := l.Greedy("never")
	assert.False(t, ok)
}

func TestGreedy(t *testing.T) {
	l := newTestLearner(t, QLearning, nil, nil)
	setRow(t, l, "s", 0, 3, 3)

	a, ok := l.Greedy("s")
	require.True(t, ok)
	assert.Equal(t, "a1", a)
}

func TestNaNRewardPropagates(t *testing.T) {
	l := newTestLearner(t, QLearning, nil, nil)
	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: math.NaN(), Next: "t"}))
	assert.True(t, math.IsNaN(value(t, l, "s", "a0")))
}

func TestResetForgetsStatesAndReseeds(t *testing.T) {
	l := newTestLearner(t, SarsaLambda, func(c *Config) { c.Epsilon = 0 }, nil)
	require.NoError(t, l.Learn(Transition[string, string]{State: "s", Action: "a0", Reward: 1, Next: "n", NextAction: "a1"}))
	require.NotZero(t, l.LastTDError())
	picks := make([]string, 32)
	for i := range picks {
		picks[i] = l.ChooseAction("s")
	}

	l.Reset(42)
	assert.Empty(t, l.States())
	assert.Zero(t, l.LastTDError())
	assert.Equal(t, uint64(42), l.Config().Seed)
	_, err := l.Eligibility("s", "a0")
	assert.ErrorIs(t, err, ErrUnknownState)

	again := make([]string, 32)
	for i := range again {
		again[i] = l.ChooseAction("s")
	}
	assert.Equal(t, picks, again)

	l.ensureRow("x")
	e, err := l.Eligibility("x", "a2")
	require.NoError(t, err)
	assert.Zero(t, e)
}

func TestRunSeed(t *testing.T) {
	assert.Zero(t, RunSeed(0, 3))
	assert.Equal(t, uint64(7), RunSeed(7, 0))
	assert.NotEqual(t, RunSeed(7, 1), RunSeed(7, 2))
	assert.NotEqual(t, RunSeed(7, 1), RunSeed(8, 1))
}
