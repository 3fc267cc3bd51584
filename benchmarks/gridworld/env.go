package gridworld

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeu5/tabular-td/core"
)

var (
	ErrInvalidGrid = errors.New("invalid grid")
	ErrUnknownMove = errors.New("unknown move")
)

type Position struct {
	Row int
	Col int
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// ParsePosition parses a "row,col" pair
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("%w: position %q is not row,col", ErrInvalidGrid, s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Position{}, fmt.Errorf("%w: position %q: %s", ErrInvalidGrid, s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Position{}, fmt.Errorf("%w: position %q: %s", ErrInvalidGrid, s, err)
	}
	return Position{Row: row, Col: col}, nil
}

type Move string

const (
	Up    Move = "up"
	Down  Move = "down"
	Right Move = "right"
	Left  Move = "left"
)

func (m Move) Hash() string {
	return string(m)
}

var _ core.Action = Up

// Moves is the action set of every grid state, in table column order
func Moves() []core.Action {
	return []core.Action{Up, Down, Right, Left}
}

type cell int

const (
	cellFree cell = iota
	cellHell
	cellTreasure
)

type GridConfig struct {
	Rows     int
	Cols     int
	Start    Position
	Hells    []Position
	Treasure Position

	TreasureReward float64
	HellReward     float64
	StepReward     float64
}

// DefaultGridConfig is a 4x4 maze with two hells guarding the treasure
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Rows:           4,
		Cols:           4,
		Start:          Position{0, 0},
		Hells:          []Position{{1, 2}, {2, 1}},
		Treasure:       Position{2, 2},
		TreasureReward: 1,
		HellReward:     -1,
		StepReward:     0,
	}
}

func (c GridConfig) inside(p Position) bool {
	return p.Row >= 0 && p.Row < c.Rows && p.Col >= 0 && p.Col < c.Cols
}

func (c GridConfig) cellAt(p Position) cell {
	if p == c.Treasure {
		return cellTreasure
	}
	for _, h := range c.Hells {
		if p == h {
			return cellHell
		}
	}
	return cellFree
}

func (c GridConfig) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGrid, c.Rows, c.Cols)
	}
	for _, p := range append([]Position{c.Start, c.Treasure}, c.Hells...) {
		if !c.inside(p) {
			return fmt.Errorf("%w: position %s outside the grid", ErrInvalidGrid, p)
		}
	}
	if c.cellAt(c.Start) != cellFree {
		return fmt.Errorf("%w: start %s is terminal", ErrInvalidGrid, c.Start)
	}
	return nil
}

type GridState struct {
	Pos  Position
	kind cell
}

var _ core.State = &GridState{}

func (s *GridState) Hash() string {
	return s.Pos.String()
}

func (s *GridState) Actions() []core.Action {
	return Moves()
}

func (s *GridState) Terminal() bool {
	return s.kind != cellFree
}

// GridEnv moves an agent on the grid. Moves into a wall leave it in place.
type GridEnv struct {
	config GridConfig
	cur    Position
}

var _ core.Environment = &GridEnv{}

func NewGridEnv(config GridConfig) (*GridEnv, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &GridEnv{config: config, cur: config.Start}, nil
}

func (g *GridEnv) state() *GridState {
	return &GridState{Pos: g.cur, kind: g.config.cellAt(g.cur)}
}

func (g *GridEnv) Reset() (core.State, error) {
	g.cur = g.config.Start
	return g.state(), nil
}

func (g *GridEnv) Step(a core.Action, _ *core.StepContext) (core.State, float64, error) {
	move, ok := a.(Move)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnknownMove, a)
	}
	if g.config.cellAt(g.cur) != cellFree {
		return nil, 0, fmt.Errorf("episode already ended at %s", g.cur)
	}
	next := g.cur
	switch move {
	case Up:
		next.Row--
	case Down:
		next.Row++
	case Right:
		next.Col++
	case Left:
		next.Col--
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownMove, move)
	}
	if g.config.inside(next) {
		g.cur = next
	}

	reward := g.config.StepReward
	switch g.config.cellAt(g.cur) {
	case cellTreasure:
		reward = g.config.TreasureReward
	case cellHell:
		reward = g.config.HellReward
	}
	return g.state(), reward, nil
}

type GridEnvConstructor struct {
	config GridConfig
}

var _ core.EnvironmentConstructor = &GridEnvConstructor{}

func NewGridEnvConstructor(config GridConfig) *GridEnvConstructor {
	return &GridEnvConstructor{config: config}
}

// NewEnvironment panics on an invalid config; validate it first
func (c *GridEnvConstructor) NewEnvironment(_ int) core.Environment {
	env, err := NewGridEnv(c.config)
	if err != nil {
		panic(err)
	}
	return env
}
