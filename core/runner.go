package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeu5/tabular-td/util"
)

var ErrTooManyErrors = errors.New("too many errors")

type ExperimentResult struct {
	CompletedEpisodes int
	TotalEpisodes     int
	ErrorEpisodes     int
	TimeoutEpisodes   int
	TotalTimeSteps    int
	TerminalEpisodes  int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// Run executes the configured number of episodes. The policy is reset before
// the first episode and left trained afterwards. Episodes run in the caller's
// goroutine: policies are not required to be safe for concurrent use.
func (e *Experiment) Run(ctx context.Context, run int, rConfig *RunConfig, analyzers map[string]Analyzer, output *util.ParallelOutput) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	e.Policy.Reset()
	logger := slog.Default().With("experiment", e.Name, "run", run)

	consecutiveErrors := 0
	for episode := 0; episode < rConfig.Episodes; episode++ {
		if ctx.Err() != nil {
			result.Error = fmt.Errorf("context cancelled: %w", ctx.Err())
			break
		}
		if output != nil {
			output.TrySet(fmt.Sprintf(
				"Experiment: %s, Run %d, Episode %d/%d, Timesteps: %d, Terminal: %d, Error: %d, Timedout: %d",
				e.Name, run, episode, rConfig.Episodes, result.TotalTimeSteps, result.TerminalEpisodes, result.ErrorEpisodes, result.TimeoutEpisodes,
			))
		}

		eCtx := NewEpisodeContext(ctx)
		eCtx.Run = run
		eCtx.Episode = episode
		eCtx.Horizon = rConfig.Horizon
		eCtx.StartTimeStep = result.TotalTimeSteps
		eCtx.Experiment = e.Name

		e.runEpisode(eCtx, rConfig.EpisodeTimeout)

		result.TotalEpisodes++
		// the policy learned from every recorded step, whatever ended the episode
		result.TotalTimeSteps += eCtx.Trace.Len()
		switch {
		case eCtx.IsTimeout():
			result.TimeoutEpisodes++
			logger.Debug("episode timed out", "episode", episode, "steps", eCtx.Trace.Len())
			continue
		case eCtx.IsError():
			if ctx.Err() != nil {
				result.Error = fmt.Errorf("context cancelled: %w", ctx.Err())
				return e.finish(result, analyzers)
			}
			result.ErrorEpisodes++
			logger.Warn("episode failed", "episode", episode, "error", eCtx.Err())
			if consecutiveErrors++; rConfig.ThresholdConsecutiveErrors > 0 && consecutiveErrors >= rConfig.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
				return e.finish(result, analyzers)
			}
			continue
		}
		consecutiveErrors = 0
		result.CompletedEpisodes++
		if last := eCtx.Trace.Last(); last != nil && last.NextState.Terminal() {
			result.TerminalEpisodes++
		}

		for _, a := range analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
	}
	return e.finish(result, analyzers)
}

func (e *Experiment) finish(result *ExperimentResult, analyzers map[string]Analyzer) *ExperimentResult {
	if result.Error != nil {
		slog.Error("experiment stopped", "experiment", e.Name, "error", result.Error)
	}
	for name, a := range analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result
}

// runEpisode steps the environment until a terminal state, the horizon or the
// timeout. The action for the next state is picked before the update so that
// on-policy learners bootstrap from the action they will actually take.
func (e *Experiment) runEpisode(eCtx *EpisodeContext, timeout time.Duration) {
	start := time.Now()
	defer func() { eCtx.duration = time.Since(start) }()

	var deadline time.Time
	if timeout > 0 {
		deadline = start.Add(timeout)
	}

	e.Policy.ResetEpisode(eCtx)
	state, err := e.Environment.Reset()
	if err != nil {
		eCtx.Error(fmt.Errorf("reset: %w", err))
		return
	}
	sCtx := &StepContext{Step: 0, EpisodeContext: eCtx}
	action := e.Policy.PickAction(sCtx, state, state.Actions())

	for step := 0; eCtx.Horizon <= 0 || step < eCtx.Horizon; step++ {
		if err := eCtx.Context.Err(); err != nil {
			eCtx.Error(err)
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			eCtx.Timeout()
			return
		}

		sCtx = &StepContext{Step: step, EpisodeContext: eCtx}
		nextState, reward, err := e.Environment.Step(action, sCtx)
		if err != nil {
			eCtx.Error(fmt.Errorf("step %d: %w", step, err))
			return
		}
		nextAction := e.Policy.PickAction(sCtx, nextState, nextState.Actions())
		s := &Step{
			State:      state,
			Action:     action,
			Reward:     reward,
			NextState:  nextState,
			NextAction: nextAction,
			Misc:       make(map[string]interface{}),
		}
		if err := e.Policy.UpdateStep(sCtx, s); err != nil {
			eCtx.Error(fmt.Errorf("update at step %d: %w", step, err))
			return
		}
		eCtx.Trace.AddStep(s)
		if nextState.Terminal() {
			break
		}
		state, action = nextState, nextAction
	}
	e.Policy.UpdateEpisode(eCtx)
}

// Run executes every experiment once per run, then hands the collected
// datasets to the comparators of that run.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig, printer *util.TerminalPrinter) error {
	for run := 0; run < runs; run++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		results := make(map[string]*ExperimentResult)
		experimentNames := make([]string, 0, len(c.Experiments))

		for _, e := range c.Experiments {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, a := range c.Analyzers {
				a.Reset()
			}
			var output *util.ParallelOutput
			if printer != nil {
				output = printer.NewOutput()
			}
			results[e.Name] = e.Run(ctx, run, rConfig, c.Analyzers, output)
			experimentNames = append(experimentNames, e.Name)
			if output != nil {
				r := results[e.Name]
				output.Set(fmt.Sprintf(
					"Experiment: %s, Run %d, Episodes: %d, Timesteps: %d, Terminal: %d, Error: %d, Timedout: %d",
					e.Name, run, r.TotalEpisodes, r.TotalTimeSteps, r.TerminalEpisodes, r.ErrorEpisodes, r.TimeoutEpisodes,
				))
			}
		}

		// Gather datasets to run comparisons
		for name, cc := range c.Comparators {
			datasets := make([]DataSet, len(experimentNames))
			for i, exp := range experimentNames {
				result := results[exp]
				if result.IsError() {
					datasets[i] = nil
				} else {
					datasets[i] = result.Datasets[name]
				}
			}
			if err := cc.NewComparator(run).Compare(experimentNames, datasets); err != nil {
				slog.Error("comparison failed", "analysis", name, "run", run, "error", err)
			}
		}
	}
	return nil
}
