package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/quartic/internal/analysis"
	"github.com/san-kum/quartic/internal/dynamo"
)

// Panel names one state coordinate plotted against time.
type Panel struct {
	Label     string
	Component int
}

// Panels are the stacked charts, top to bottom.
var Panels = []Panel{
	{Label: "Position", Component: 0},
	{Label: "Momentum", Component: 1},
}

// Chart renders one coordinate of res against time. Samples are resampled
// onto width evenly spaced instants so the horizontal axis is linear in time.
func Chart(res *dynamo.Result, p Panel, width, height int) string {
	if res == nil || res.Len() == 0 {
		return ""
	}
	values := analysis.Resample(res.Times, res.Component(p.Component), max(width, 2))
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(p.Label),
	)
}

// Charts renders all panels stacked vertically above a shared time axis.
func Charts(res *dynamo.Result, width, height int) string {
	if res == nil || res.Len() == 0 {
		return ""
	}

	var sb strings.Builder
	for i, p := range Panels {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(Chart(res, p, width, height))
	}
	sb.WriteString("\n\n")
	sb.WriteString(TimeAxis(res.Times[0], res.Times[res.Len()-1], width))
	return sb.String()
}

// TimeAxis labels the horizontal extent of the charts.
func TimeAxis(start, end float64, width int) string {
	left := fmt.Sprintf("%.2f", start)
	right := fmt.Sprintf("%.2f", end)
	label := "Time"
	gap := width - len(left) - len(right) - len(label)
	if gap < 2 {
		return fmt.Sprintf("%s %s %s", left, label, right)
	}
	lpad := gap / 2
	return left + strings.Repeat(" ", lpad) + label + strings.Repeat(" ", gap-lpad) + right
}
