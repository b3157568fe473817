package formatter

import (
	"fmt"
	"strings"
	"time"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderGraceBar shows how much of a grace window is left, like
// [████░░░░] 9h 12m left. The bar is green with more than two thirds left,
// yellow above one third and red below.
func RenderGraceBar(left, window time.Duration, width int) string {
	if width < 2 {
		width = 2
	}
	pct := 0.0
	if window > 0 {
		pct = float64(left) / float64(window)
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	var style = StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}

	return fmt.Sprintf("[%s] %s left", style.Render(bar), FormatDuration(left))
}
