package compress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxFailureLines bounds the lines kept per failing test.
const maxFailureLines = 10

var (
	cargoSummary = regexp.MustCompile(`test result: (\w+)\. (\d+) passed; (\d+) failed`)
	cargoFail    = regexp.MustCompile(`^---- (.+) stdout ----$`)
	jsSummary    = regexp.MustCompile(`Tests:\s+(?:(\d+) failed,\s+)?(\d+) passed,\s+(\d+) total`)
	pyFailed     = regexp.MustCompile(`(\d+) failed`)
	pyPassed     = regexp.MustCompile(`(\d+) passed`)
)

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func summary(total, passed, failed int, elapsed string) string {
	return fmt.Sprintf("%d tests: %d passed, %d failed%s", total, passed, failed, elapsed)
}

func allPassed(total int, elapsed string) string {
	return fmt.Sprintf("%d tests passed%s", total, elapsed)
}

func compressCargoTest(content string) (string, bool) {
	m := cargoSummary.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	passed, failed := atoi(m[2]), atoi(m[3])
	total := passed + failed
	elapsed := extractTime(content)
	if failed == 0 {
		return allPassed(total, elapsed), true
	}

	var b strings.Builder
	inFailure := false
	kept := 0
	for _, l := range lines(content) {
		if fm := cargoFail.FindStringSubmatch(l); fm != nil {
			inFailure = true
			kept = 0
			fmt.Fprintf(&b, "FAIL %s:\n", fm[1])
			continue
		}
		if !inFailure {
			continue
		}
		if strings.HasPrefix(l, "----") || strings.HasPrefix(l, "failures:") {
			inFailure = false
			continue
		}
		if t := strings.TrimSpace(l); t != "" && kept < maxFailureLines {
			b.WriteString("  ")
			b.WriteString(t)
			b.WriteByte('\n')
			kept++
		}
	}
	b.WriteString(summary(total, passed, failed, elapsed))
	return b.String(), true
}

func compressJSTest(content string) (string, bool) {
	if !strings.Contains(content, "Tests:") || !strings.Contains(content, "passed,") {
		return "", false
	}
	m := jsSummary.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	failed, passed, total := atoi(m[1]), atoi(m[2]), atoi(m[3])
	elapsed := extractTime(content)
	if failed == 0 {
		return allPassed(total, elapsed), true
	}

	var b strings.Builder
	for _, l := range lines(content) {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "FAIL") || strings.Contains(t, "Error:") || strings.Contains(t, "expect(") {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	}
	b.WriteString(summary(total, passed, failed, elapsed))
	return b.String(), true
}

func compressPytest(content string) (string, bool) {
	if !strings.Contains(content, "passed") || !strings.Contains(content, "====") {
		return "", false
	}
	var line string
	for _, l := range lines(content) {
		if strings.Contains(l, "====") && strings.Contains(l, "passed") {
			line = l
			break
		}
	}
	pm := pyPassed.FindStringSubmatch(line)
	if pm == nil {
		return "", false
	}
	passed := atoi(pm[1])
	failed := 0
	if fm := pyFailed.FindStringSubmatch(line); fm != nil {
		failed = atoi(fm[1])
	}
	total := passed + failed
	elapsed := extractTime(content)
	if failed == 0 {
		return allPassed(total, elapsed), true
	}

	var b strings.Builder
	inFailure := false
	for _, l := range lines(content) {
		switch {
		case strings.HasPrefix(l, "FAILED "), strings.HasPrefix(l, "E "):
			b.WriteString(l)
			b.WriteByte('\n')
			inFailure = true
		case inFailure && strings.HasPrefix(l, "    "):
			b.WriteString(l)
			b.WriteByte('\n')
		default:
			inFailure = false
		}
	}
	b.WriteString(summary(total, passed, failed, elapsed))
	return b.String(), true
}

// extractTime finds the last "finished in Xs" or "Time: Xs" marker and
// renders it as " (Xs)".
func extractTime(content string) string {
	ls := lines(content)
	for i := len(ls) - 1; i >= 0; i-- {
		l := ls[i]
		if _, rest, ok := strings.Cut(l, "finished in "); ok {
			if end := strings.IndexByte(rest, 's'); end >= 0 {
				return " (" + rest[:end] + "s)"
			}
		}
		if _, rest, ok := strings.Cut(l, "Time:"); ok {
			rest = strings.TrimSpace(rest)
			if end := strings.IndexByte(rest, 's'); end >= 0 {
				return " (" + rest[:end] + "s)"
			}
		}
	}
	return ""
}
