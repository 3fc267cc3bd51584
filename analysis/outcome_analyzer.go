package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/util"
)

// OutcomeSpec names a property of a finished episode, for example reaching
// a goal state.
type OutcomeSpec struct {
	Name  string
	Check func(*core.Trace) bool
}

type outcomeDataset struct {
	Counts       map[string]int
	FirstEpisode map[string]int
	Episodes     int
}

func (o *outcomeDataset) Copy() *outcomeDataset {
	return &outcomeDataset{
		Counts:       util.CopyStringIntMap(o.Counts),
		FirstEpisode: util.CopyStringIntMap(o.FirstEpisode),
		Episodes:     o.Episodes,
	}
}

// OutcomeAnalyzer counts the episodes matching each outcome. FirstEpisode is
// -1 for outcomes that never occurred.
type OutcomeAnalyzer struct {
	outcomes []OutcomeSpec
	dataset  *outcomeDataset
}

var _ core.Analyzer = &OutcomeAnalyzer{}

func NewOutcomeAnalyzer(outcomes ...OutcomeSpec) *OutcomeAnalyzer {
	o := &OutcomeAnalyzer{outcomes: outcomes}
	o.Reset()
	return o
}

func (o *OutcomeAnalyzer) Reset() {
	o.dataset = &outcomeDataset{
		Counts:       make(map[string]int),
		FirstEpisode: make(map[string]int),
	}
	for _, spec := range o.outcomes {
		o.dataset.Counts[spec.Name] = 0
		o.dataset.FirstEpisode[spec.Name] = -1
	}
}

func (o *OutcomeAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	o.dataset.Episodes++
	for _, spec := range o.outcomes {
		if !spec.Check(trace) {
			continue
		}
		o.dataset.Counts[spec.Name]++
		if o.dataset.FirstEpisode[spec.Name] < 0 {
			o.dataset.FirstEpisode[spec.Name] = eCtx.Episode
		}
	}
}

func (o *OutcomeAnalyzer) DataSet() core.DataSet {
	return o.dataset.Copy()
}

type OutcomeComparator struct {
	savePath string
}

var _ core.Comparator = &OutcomeComparator{}

func NewOutcomeComparator(savePath string) *OutcomeComparator {
	return &OutcomeComparator{
		savePath: path.Join(savePath, "outcomes.json"),
	}
}

func (c *OutcomeComparator) Compare(experimentNames []string, datasets []core.DataSet) error {
	out := make(map[string]*outcomeDataset)
	for i, name := range experimentNames {
		if ds, ok := datasets[i].(*outcomeDataset); ok {
			out[name] = ds
		}
	}
	return util.SaveJson(c.savePath, out)
}

type OutcomeComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &OutcomeComparatorConstructor{}

func NewOutcomeComparatorConstructor(savePath string) *OutcomeComparatorConstructor {
	return &OutcomeComparatorConstructor{
		savePath: savePath,
	}
}

func (c *OutcomeComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewOutcomeComparator(path.Join(c.savePath, strconv.Itoa(run)))
}

// ReachedState is an outcome that holds when the episode ends in the state
// with the given hash.
func ReachedState(name, hash string) OutcomeSpec {
	return OutcomeSpec{
		Name: name,
		Check: func(t *core.Trace) bool {
			last := t.Last()
			return last != nil && last.NextState.Hash() == hash
		},
	}
}
