package normalize

import (
	"fmt"
	"strconv"

	"github.com/researchaccelerator-hub/innertube-miner/document"
)

// lengthSeconds reads the numeric lengthSeconds field of playlist rows,
// which may be encoded as a string or a number, and formats it as a clock.
func lengthSeconds(m *document.Mapping) (string, bool) {
	node, ok := m.Get(lengthSecondsField)
	if !ok {
		return "", false
	}

	var total int64
	if s, ok := document.String(node); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", false
		}
		total = n
	} else if f, ok := document.Number(node); ok {
		total = int64(f)
	} else {
		return "", false
	}

	if total < 0 {
		return "", false
	}
	return formatClock(total), true
}

// formatClock renders seconds as m:ss or h:mm:ss.
func formatClock(total int64) string {
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
