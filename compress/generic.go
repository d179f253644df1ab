package compress

import (
	"fmt"
	"strings"
)

const (
	// genericMinLines is the line count above which the fallback applies.
	genericMinLines = 200
	// MaxOutputLines caps the lines kept by the fallback.
	MaxOutputLines = 100
)

// compressGeneric collapses runs of identical lines to "line [xN]" and
// keeps at most MaxOutputLines output lines.
func compressGeneric(content string) (string, bool) {
	all := lines(content)
	if len(all) <= genericMinLines {
		return "", false
	}

	out := make([]string, 0, MaxOutputLines+1)
	consumed := 0
	for consumed < len(all) && len(out) < MaxOutputLines {
		line := all[consumed]
		run := 1
		for consumed+run < len(all) && all[consumed+run] == line {
			run++
		}
		consumed += run
		if run > 1 {
			line = fmt.Sprintf("%s [x%d]", line, run)
		}
		out = append(out, line)
	}
	if consumed < len(all) {
		out = append(out, fmt.Sprintf("\n... (%d more lines omitted, %d total)", len(all)-consumed, len(all)))
	}
	return strings.Join(out, "\n"), true
}
