package gridworld

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
)

var arrows = map[Move]string{
	Up:    "^",
	Down:  "v",
	Right: ">",
	Left:  "<",
}

// GreedyFunc returns the greedy action hash of a state hash, false if the
// state was never visited.
type GreedyFunc func(string) (string, bool)

// RenderPolicy draws the grid with the greedy move of every visited free cell.
// S marks the start, T the treasure, X a hell and . an unvisited cell.
func RenderPolicy(w io.Writer, config GridConfig, greedy GreedyFunc, colors bool) {
	au := aurora.NewAurora(colors)
	for r := 0; r < config.Rows; r++ {
		for c := 0; c < config.Cols; c++ {
			p := Position{Row: r, Col: c}
			switch config.cellAt(p) {
			case cellTreasure:
				fmt.Fprint(w, au.Yellow(fmt.Sprintf("%3s", "T")))
			case cellHell:
				fmt.Fprint(w, au.Red(fmt.Sprintf("%3s", "X")))
			default:
				action, ok := greedy(p.String())
				label := "."
				if ok {
					label = arrows[Move(action)]
				}
				if p == config.Start {
					fmt.Fprint(w, au.Green(fmt.Sprintf("%2s%s", "S", label)))
				} else {
					fmt.Fprint(w, au.Blue(fmt.Sprintf("%3s", label)))
				}
			}
			fmt.Fprint(w, au.White(" |"))
		}
		fmt.Fprintln(w)
	}
}
