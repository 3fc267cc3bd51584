package core

import (
	"context"
	"time"
)

type Environment interface {
	Reset() (State, error)
	// Step applies the action and returns the next state with the reward received
	Step(Action, *StepContext) (State, float64, error)
}

type State interface {
	Hash() string
	Actions() []Action
	// Terminal reports whether the episode ends in this state
	Terminal() bool
}

type Action interface {
	Hash() string
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	Horizon       int
	Run           int
	StartTimeStep int
	Experiment    string

	Trace *Trace

	err      error
	timeout  bool
	duration time.Duration
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
	}
}

func (e *EpisodeContext) Error(err error) {
	e.err = err
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) Timeout() {
	e.timeout = true
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

// Duration is the wall time the episode took
func (e *EpisodeContext) Duration() time.Duration {
	return e.duration
}

type StepContext struct {
	Step int
	*EpisodeContext
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	NewEnvironment(int) Environment
}
