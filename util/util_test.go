package util

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveJsonCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "out.json")
	require.NoError(t, SaveJson(p, map[string]int{"x": 1}))

	bs, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1}`, string(bs))
}

func TestCopies(t *testing.T) {
	ints := []int{1, 2}
	c := CopyIntSlice(ints)
	c[0] = 9
	assert.Equal(t, []int{1, 2}, ints)

	m := map[string]int{"a": 1}
	cm := CopyStringIntMap(m)
	cm["a"] = 2
	assert.Equal(t, 1, m["a"])

	assert.Equal(t, 2, MinInt(2, 3))
	assert.Equal(t, 2, MinInt(3, 2))
}

func TestTerminalPrinterNotLive(t *testing.T) {
	var buf bytes.Buffer
	printer := NewTerminalPrinter(&buf, 10*time.Millisecond)
	first := printer.NewOutput()
	second := printer.NewOutput()

	printer.Start(context.Background())
	first.Set("one")
	assert.True(t, second.TrySet("two"))
	printer.Stop()

	assert.Equal(t, "one\ntwo\n", buf.String())
}
