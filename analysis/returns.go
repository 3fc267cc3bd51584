package analysis

import (
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/util"
)

type returnDataset struct {
	Returns   []float64
	Lengths   []int
	Durations []time.Duration

	MeanReturn   float64
	MeanLength   float64
	MeanDuration time.Duration
}

func (r *returnDataset) Copy() *returnDataset {
	return &returnDataset{
		Returns:      util.CopyFloatSlice(r.Returns),
		Lengths:      util.CopyIntSlice(r.Lengths),
		Durations:    append([]time.Duration(nil), r.Durations...),
		MeanReturn:   r.MeanReturn,
		MeanLength:   r.MeanLength,
		MeanDuration: r.MeanDuration,
	}
}

// ReturnAnalyzer records the undiscounted return, length and wall time of
// every episode
type ReturnAnalyzer struct {
	dataset *returnDataset
}

var _ core.Analyzer = &ReturnAnalyzer{}

func NewReturnAnalyzer() *ReturnAnalyzer {
	a := &ReturnAnalyzer{}
	a.Reset()
	return a
}

func (r *ReturnAnalyzer) Reset() {
	r.dataset = &returnDataset{
		Returns:   make([]float64, 0),
		Lengths:   make([]int, 0),
		Durations: make([]time.Duration, 0),
	}
}

func (r *ReturnAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	r.dataset.Returns = append(r.dataset.Returns, trace.Return())
	r.dataset.Lengths = append(r.dataset.Lengths, trace.Len())
	r.dataset.Durations = append(r.dataset.Durations, eCtx.Duration())
}

func (r *ReturnAnalyzer) DataSet() core.DataSet {
	out := r.dataset.Copy()
	if len(out.Returns) > 0 {
		out.MeanReturn = stat.Mean(out.Returns, nil)
		lengths := make([]float64, len(out.Lengths))
		for i, l := range out.Lengths {
			lengths[i] = float64(l)
		}
		out.MeanLength = stat.Mean(lengths, nil)

		var total time.Duration
		for _, d := range out.Durations {
			total += d
		}
		out.MeanDuration = total / time.Duration(len(out.Durations))
	}
	return out
}

// ReturnComparator saves the return datasets as JSON and plots a moving
// average of the returns of every experiment.
type ReturnComparator struct {
	savePath string
	window   int
}

var _ core.Comparator = &ReturnComparator{}

func NewReturnComparator(savePath string, window int) *ReturnComparator {
	if window < 1 {
		window = 1
	}
	return &ReturnComparator{
		savePath: savePath,
		window:   window,
	}
}

func (c *ReturnComparator) Compare(experimentNames []string, datasets []core.DataSet) error {
	out := make(map[string]*returnDataset)
	for i, name := range experimentNames {
		if ds, ok := datasets[i].(*returnDataset); ok {
			out[name] = ds
		}
	}
	if err := util.SaveJson(path.Join(c.savePath, "returns.json"), out); err != nil {
		return err
	}

	series := make(map[string][]float64, len(out))
	for name, ds := range out {
		series[name] = MovingAverage(ds.Returns, c.window)
	}
	return saveLineChart(
		path.Join(c.savePath, "returns.html"),
		"Episode return",
		fmt.Sprintf("moving average over %d episodes", c.window),
		experimentNames,
		series,
	)
}

// saveLineChart renders one line per experiment, in the order of names,
// against the episode number.
func saveLineChart(file, title, subtitle string, names []string, series map[string][]float64) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	episodes := 0
	for _, values := range series {
		if len(values) > episodes {
			episodes = len(values)
		}
	}
	xAxis := make([]string, episodes)
	for i := range xAxis {
		xAxis[i] = strconv.Itoa(i)
	}
	line.SetXAxis(xAxis)

	for _, name := range names {
		values, ok := series[name]
		if !ok {
			continue
		}
		items := make([]opts.LineData, 0, len(values))
		for _, v := range values {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(name, items)
	}

	f, err := util.CreateFile(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}

// MovingAverage returns the trailing mean over at most window values ending
// at each index.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(util.MinInt(i+1, window))
	}
	return out
}

type ReturnComparatorConstructor struct {
	savePath string
	window   int
}

var _ core.ComparatorConstructor = &ReturnComparatorConstructor{}

func NewReturnComparatorConstructor(savePath string, window int) *ReturnComparatorConstructor {
	return &ReturnComparatorConstructor{
		savePath: savePath,
		window:   window,
	}
}

func (c *ReturnComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewReturnComparator(path.Join(c.savePath, strconv.Itoa(run)), c.window)
}
