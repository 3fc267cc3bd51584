package policies

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrUnknownState     = errors.New("state not present in table")
	ErrColumnOutOfRange = errors.New("column out of range")
)

// ValueTable maps states to a fixed-width row of values, one column per action.
// A state without a row is unvisited; rows are created by EnsureRow and never removed.
type ValueTable[S comparable] struct {
	rows  map[S][]float64
	width int
}

func NewValueTable[S comparable](width int) *ValueTable[S] {
	return &ValueTable[S]{
		rows:  make(map[S][]float64),
		width: width,
	}
}

// EnsureRow inserts a zero row for the state if it is absent and reports
// whether a row was created. Existing rows are left untouched.
func (t *ValueTable[S]) EnsureRow(state S) bool {
	if _, ok := t.rows[state]; ok {
		return false
	}
	t.rows[state] = make([]float64, t.width)
	return true
}

func (t *ValueTable[S]) Has(state S) bool {
	_, ok := t.rows[state]
	return ok
}

func (t *ValueTable[S]) Len() int {
	return len(t.rows)
}

func (t *ValueTable[S]) Width() int {
	return t.width
}

func (t *ValueTable[S]) States() []S {
	out := make([]S, 0, len(t.rows))
	for s := range t.rows {
		out = append(out, s)
	}
	return out
}

func (t *ValueTable[S]) row(state S, col int) ([]float64, error) {
	r, ok := t.rows[state]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownState, state)
	}
	if col < 0 || col >= t.width {
		return nil, fmt.Errorf("%w: %d (width %d)", ErrColumnOutOfRange, col, t.width)
	}
	return r, nil
}

func (t *ValueTable[S]) Get(state S, col int) (float64, error) {
	r, err := t.row(state, col)
	if err != nil {
		return 0, err
	}
	return r[col], nil
}

func (t *ValueTable[S]) Set(state S, col int, val float64) error {
	r, err := t.row(state, col)
	if err != nil {
		return err
	}
	r[col] = val
	return nil
}

// Row returns a copy of the values stored for the state.
func (t *ValueTable[S]) Row(state S) ([]float64, error) {
	r, ok := t.rows[state]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownState, state)
	}
	out := make([]float64, len(r))
	copy(out, r)
	return out, nil
}

// AddScaled adds alpha*other to the table for every row of other.
// Rows of other missing from t are created first.
func (t *ValueTable[S]) AddScaled(alpha float64, other *ValueTable[S]) {
	for s, delta := range other.rows {
		t.EnsureRow(s)
		floats.AddScaled(t.rows[s], alpha, delta)
	}
}

// Scale multiplies every entry of the table by f.
func (t *ValueTable[S]) Scale(f float64) {
	for _, r := range t.rows {
		floats.Scale(f, r)
	}
}

// Zero sets every entry to zero while keeping all rows.
func (t *ValueTable[S]) Zero() {
	for _, r := range t.rows {
		for i := range r {
			r[i] = 0
		}
	}
}

// ZeroCopy returns a table with the same rows as t, all values zero.
func (t *ValueTable[S]) ZeroCopy() *ValueTable[S] {
	out := NewValueTable[S](t.width)
	for s := range t.rows {
		out.EnsureRow(s)
	}
	return out
}
