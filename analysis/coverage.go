package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/util"
)

type coverageDataset struct {
	Timesteps    []int
	UniqueStates []int
}

func (c *coverageDataset) Copy() *coverageDataset {
	return &coverageDataset{
		Timesteps:    util.CopyIntSlice(c.Timesteps),
		UniqueStates: util.CopyIntSlice(c.UniqueStates),
	}
}

// CoverageAnalyzer tracks the number of distinct states visited over time
type CoverageAnalyzer struct {
	states  map[string]bool
	dataset *coverageDataset
}

var _ core.Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer() *CoverageAnalyzer {
	c := &CoverageAnalyzer{}
	c.Reset()
	return c
}

func (c *CoverageAnalyzer) Reset() {
	c.states = make(map[string]bool)
	c.dataset = &coverageDataset{
		Timesteps:    make([]int, 0),
		UniqueStates: make([]int, 0),
	}
}

func (c *CoverageAnalyzer) Analyze(_ *core.EpisodeContext, trace *core.Trace) {
	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		c.states[step.State.Hash()] = true
		c.states[step.NextState.Hash()] = true
	}
	lastTimeStep := 0
	if len(c.dataset.Timesteps) > 0 {
		lastTimeStep = c.dataset.Timesteps[len(c.dataset.Timesteps)-1]
	}
	c.dataset.Timesteps = append(c.dataset.Timesteps, lastTimeStep+trace.Len())
	c.dataset.UniqueStates = append(c.dataset.UniqueStates, len(c.states))
}

func (c *CoverageAnalyzer) DataSet() core.DataSet {
	return c.dataset.Copy()
}

type CoverageComparator struct {
	savePath string
}

var _ core.Comparator = &CoverageComparator{}

func NewCoverageComparator(savePath string) *CoverageComparator {
	return &CoverageComparator{
		savePath: path.Join(savePath, "coverage.json"),
	}
}

func (c *CoverageComparator) Compare(experimentNames []string, datasets []core.DataSet) error {
	out := make(map[string]*coverageDataset)
	for i, name := range experimentNames {
		if ds, ok := datasets[i].(*coverageDataset); ok {
			out[name] = ds
		}
	}
	return util.SaveJson(c.savePath, out)
}

type CoverageComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &CoverageComparatorConstructor{}

func NewCoverageComparatorConstructor(savePath string) *CoverageComparatorConstructor {
	return &CoverageComparatorConstructor{
		savePath: savePath,
	}
}

func (c *CoverageComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewCoverageComparator(path.Join(c.savePath, strconv.Itoa(run)))
}
