package dashboard

import (
	"fmt"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
	util "github.com/saulo-duarte/engmcq-web/internal/utils"
)

// minBarHeight keeps sessions worth zero points visible in the sparkline.
const minBarHeight = 4

type Bar struct {
	Height int
	Label  string
}

// Bars scales the points history into percentage heights, tallest session
// first at 100.
func Bars(history []backend.PointsEntry) []Bar {
	highest := 0
	for _, e := range history {
		highest = max(highest, e.Points)
	}

	bars := make([]Bar, 0, len(history))
	for _, e := range history {
		h := minBarHeight
		if highest > 0 && e.Points > 0 {
			h = max(minBarHeight, e.Points*100/highest)
		}
		bars = append(bars, Bar{
			Height: h,
			Label:  fmt.Sprintf("%s: %d points", util.FormatTimestamp(e.Timestamp), e.Points),
		})
	}
	return bars
}
