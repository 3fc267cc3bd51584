package analysis

import (
	"math"
	"path"
	"strconv"

	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/policies"
	"github.com/zeu5/tabular-td/util"
)

type tdErrorDataset struct {
	// episode numbers that recorded at least one update
	Episodes       []int
	MeanAbsTDError []float64
}

func (d *tdErrorDataset) Copy() *tdErrorDataset {
	return &tdErrorDataset{
		Episodes:       util.CopyIntSlice(d.Episodes),
		MeanAbsTDError: util.CopyFloatSlice(d.MeanAbsTDError),
	}
}

// TDErrorAnalyzer averages the magnitude of the temporal-difference errors
// the policy recorded on the steps of each episode. Policies that do not
// learn record nothing and yield an empty dataset.
type TDErrorAnalyzer struct {
	dataset *tdErrorDataset
}

var _ core.Analyzer = &TDErrorAnalyzer{}

func NewTDErrorAnalyzer() *TDErrorAnalyzer {
	a := &TDErrorAnalyzer{}
	a.Reset()
	return a
}

func (a *TDErrorAnalyzer) Reset() {
	a.dataset = &tdErrorDataset{
		Episodes:       make([]int, 0),
		MeanAbsTDError: make([]float64, 0),
	}
}

func (a *TDErrorAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	sum := 0.0
	count := 0
	for i := 0; i < trace.Len(); i++ {
		tdErr, ok := trace.Step(i).Misc[policies.TDErrorKey].(float64)
		if !ok {
			continue
		}
		sum += math.Abs(tdErr)
		count++
	}
	if count == 0 {
		return
	}
	a.dataset.Episodes = append(a.dataset.Episodes, eCtx.Episode)
	a.dataset.MeanAbsTDError = append(a.dataset.MeanAbsTDError, sum/float64(count))
}

func (a *TDErrorAnalyzer) DataSet() core.DataSet {
	return a.dataset.Copy()
}

// TDErrorComparator saves the per-episode errors as JSON and plots them for
// every experiment that learned.
type TDErrorComparator struct {
	savePath string
}

var _ core.Comparator = &TDErrorComparator{}

func NewTDErrorComparator(savePath string) *TDErrorComparator {
	return &TDErrorComparator{savePath: savePath}
}

func (c *TDErrorComparator) Compare(experimentNames []string, datasets []core.DataSet) error {
	out := make(map[string]*tdErrorDataset)
	series := make(map[string][]float64)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*tdErrorDataset)
		if !ok || len(ds.MeanAbsTDError) == 0 {
			continue
		}
		out[name] = ds
		series[name] = ds.MeanAbsTDError
	}
	if err := util.SaveJson(path.Join(c.savePath, "td_errors.json"), out); err != nil {
		return err
	}
	return saveLineChart(
		path.Join(c.savePath, "td_errors.html"),
		"Temporal-difference error",
		"mean absolute error per episode",
		experimentNames,
		series,
	)
}

type TDErrorComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &TDErrorComparatorConstructor{}

func NewTDErrorComparatorConstructor(savePath string) *TDErrorComparatorConstructor {
	return &TDErrorComparatorConstructor{savePath: savePath}
}

func (c *TDErrorComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewTDErrorComparator(path.Join(c.savePath, strconv.Itoa(run)))
}
