package compress

import (
	"fmt"
	"strings"
)

// minProgressLines is how many Compiling/Downloading lines mark build output.
const minProgressLines = 5

func compressBuild(content string) (string, bool) {
	all := lines(content)
	var compiling, downloading int
	for _, l := range all {
		t := strings.TrimLeft(l, " \t")
		switch {
		case strings.HasPrefix(t, "Compiling"):
			compiling++
		case strings.HasPrefix(t, "Downloading"):
			downloading++
		}
	}
	if compiling+downloading < minProgressLines {
		return "", false
	}

	var errs, warnings, other []string
	for _, l := range all {
		t := strings.TrimLeft(l, " \t")
		switch {
		case strings.HasPrefix(t, "Compiling"), strings.HasPrefix(t, "Downloading"), strings.HasPrefix(t, "Fetching"):
		case strings.HasPrefix(t, "error"), strings.HasPrefix(t, "Error"):
			errs = append(errs, l)
		case strings.HasPrefix(t, "warning"), strings.HasPrefix(t, "Warning"):
			warnings = append(warnings, l)
		case strings.TrimSpace(t) != "":
			other = append(other, l)
		}
	}

	var b strings.Builder
	if compiling > 0 {
		fmt.Fprintf(&b, "Compiled %d crates", compiling)
	}
	if downloading > 0 {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "downloaded %d crates", downloading)
	}
	b.WriteByte('\n')
	if len(errs) > 0 {
		fmt.Fprintf(&b, "\n%d error(s):\n", len(errs))
		writeLines(&b, errs)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(&b, "\n%d warning(s):\n", len(warnings))
		writeLines(&b, warnings)
	}
	writeLines(&b, other)
	return strings.TrimSpace(b.String()), true
}

func writeLines(b *strings.Builder, ls []string) {
	for _, l := range ls {
		b.WriteString(l)
		b.WriteByte('\n')
	}
}
