package core

type Policy interface {
	ResetEpisode(*EpisodeContext)
	UpdateEpisode(*EpisodeContext)
	PickAction(*StepContext, State, []Action) Action
	// UpdateStep learns from a completed step. Step.NextAction is the action
	// already picked for Step.NextState.
	UpdateStep(*StepContext, *Step) error
	Reset()
}

type PolicyConstructor interface {
	NewPolicy() (Policy, error)
}
