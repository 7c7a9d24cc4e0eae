// Package viz presents trajectories.
//
// [Charts] renders Position and Momentum against Time as stacked ASCII
// charts. [Viewer] wraps the same charts and a braille phase portrait in a
// Bubble Tea program:
//
//	tab      switch between time series and phase view
//	←/→      move the sample cursor
//	q/esc    quit
//
// [SaveFigure] and [SavePhasePortrait] write PNG figures with gonum/plot.
package viz
