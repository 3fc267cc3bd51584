package core

import "time"

type DataSet interface{}

type Analyzer interface {
	Analyze(*EpisodeContext, *Trace)
	DataSet() DataSet
	Reset()
}

type Comparator interface {
	Compare([]string, []DataSet) error
}

type ComparatorConstructor interface {
	// new comparator for the given run
	NewComparator(int) Comparator
}

type RunConfig struct {
	Episodes       int
	Horizon        int
	EpisodeTimeout time.Duration

	ThresholdConsecutiveErrors int
}

type Experiment struct {
	Name        string
	Environment Environment
	Policy      Policy
}

type Comparison struct {
	Experiments []*Experiment
	Analyzers   map[string]Analyzer
	Comparators map[string]ComparatorConstructor
}

func NewComparison() *Comparison {
	return &Comparison{
		Analyzers:   make(map[string]Analyzer),
		Comparators: make(map[string]ComparatorConstructor),
		Experiments: make([]*Experiment, 0),
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) AddAnalysis(name string, a Analyzer, cmp ComparatorConstructor) {
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}
