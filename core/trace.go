package core

import "sync"

type Step struct {
	State      State
	Action     Action
	Reward     float64
	NextState  State
	NextAction Action

	Misc map[string]interface{}
}

type Trace struct {
	mtx   *sync.Mutex
	steps []*Step
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
		mtx:   &sync.Mutex{},
	}
}

func (t *Trace) AddStep(s *Step) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.steps[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// Return is the undiscounted sum of rewards in the trace
func (t *Trace) Return() float64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	sum := 0.0
	for _, s := range t.steps {
		sum += s.Reward
	}
	return sum
}
