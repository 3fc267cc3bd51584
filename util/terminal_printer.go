package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/mattn/go-isatty"
)

// TerminalPrinter periodically redraws one line per output. When the
// destination is not a terminal the outputs are only printed on Stop.
type TerminalPrinter struct {
	mu              sync.Mutex
	parallelOutputs []*ParallelOutput
	frequency       time.Duration
	live            bool
	doneCh          chan struct{}
	stoppedCh       chan struct{}

	out     io.Writer
	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(out io.Writer, frequency time.Duration) *TerminalPrinter {
	live := false
	if f, ok := out.(*os.File); ok {
		live = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	writer := uilive.New()
	writer.Out = out
	return &TerminalPrinter{
		parallelOutputs: make([]*ParallelOutput, 0),
		frequency:       frequency,
		live:            live,
		doneCh:          make(chan struct{}),
		stoppedCh:       make(chan struct{}),

		out:     out,
		writer:  writer,
		writers: make([]io.Writer, 0),
	}
}

func (t *TerminalPrinter) NewOutput() *ParallelOutput {
	out := NewParallelOutput()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parallelOutputs = append(t.parallelOutputs, out)
	t.writers = append(t.writers, t.writer.Newline())
	return out
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	if !p.live {
		close(p.stoppedCh)
		return
	}
	go func() {
		defer close(p.stoppedCh)
		for {
			select {
			case <-p.doneCh:
				p.print()
				p.writer.Stop()
				return
			case <-ctx.Done():
				p.writer.Stop()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop flushes the outputs a final time and waits for the refresh loop to exit
func (p *TerminalPrinter) Stop() {
	close(p.doneCh)
	<-p.stoppedCh
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live {
		for _, output := range p.parallelOutputs {
			fmt.Fprintln(p.out, output.Get())
		}
	}
}

func (p *TerminalPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, output := range p.parallelOutputs {
		fmt.Fprint(p.writers[i], output.Get()+"\n")
	}
	p.writer.Flush()
}

// PARALLEL OUTPUT
// used to update and print experiment outputs
type ParallelOutput struct {
	mu        *sync.Mutex
	printable string
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	success := p.mu.TryLock()
	if success {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
