package analysis

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/zeu5/tabular-td/core"
	"github.com/zeu5/tabular-td/util"
)

type PrintDebugAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
	saved            int
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, threshold int) *PrintDebugAnalyzer {
	return &PrintDebugAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	if err := util.EnsureDir(a.savePath); err != nil {
		slog.Warn("cannot create trace directory", "path", a.savePath, "error", err)
		return
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if ctx.Experiment != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, ctx.Experiment, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	if err := os.WriteFile(file, []byte(traceToString(trace)), 0644); err != nil {
		slog.Warn("cannot write trace", "file", file, "error", err)
		return
	}
	a.saved++
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(step)))
	}
	buf.WriteString(fmt.Sprintf("Return: %v\n", trace.Return()))
	return buf.String()
}

func stepToString(step *core.Step) string {
	nextAction := "none"
	if step.NextAction != nil {
		nextAction = step.NextAction.Hash()
	}
	return fmt.Sprintf(
		"State: %s\nAction: %s\nReward: %v\nNext State: %s (terminal: %t)\nNext Action: %s\n",
		step.State.Hash(),
		step.Action.Hash(),
		step.Reward,
		step.NextState.Hash(),
		step.NextState.Terminal(),
		nextAction,
	)
}

// DataSet is the number of traces written
func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return a.saved
}

func (a *PrintDebugAnalyzer) Reset() {
	a.saved = 0
}

// DebugComparator logs where the traces of each experiment were written
type DebugComparator struct {
	savePath string
	run      int
}

var _ core.Comparator = &DebugComparator{}

func (c *DebugComparator) Compare(experimentNames []string, datasets []core.DataSet) error {
	for i, name := range experimentNames {
		saved, ok := datasets[i].(int)
		if !ok {
			continue
		}
		slog.Info("traces saved", "experiment", name, "run", c.run, "count", saved, "path", c.savePath)
	}
	return nil
}

type DebugComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &DebugComparatorConstructor{}

func NewDebugComparatorConstructor(savePath string) *DebugComparatorConstructor {
	return &DebugComparatorConstructor{savePath: path.Join(savePath, "traces")}
}

func (c *DebugComparatorConstructor) NewComparator(run int) core.Comparator {
	return &DebugComparator{savePath: c.savePath, run: run}
}
