package compress

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize renders terminal output as plain text: escape sequences are
// stripped, CRLF becomes LF, a lone CR overwrites the line from column 0
// and control characters other than tab and newline are dropped.
func Sanitize(s string) string {
	if !needsSanitize(s) {
		return s
	}
	ls := strings.Split(ansi.Strip(s), "\n")
	for i, l := range ls {
		l = strings.TrimSuffix(l, "\r")
		if strings.ContainsRune(l, '\r') {
			l = overwrite(l)
		}
		ls[i] = strings.Map(dropControl, l)
	}
	return strings.Join(ls, "\n")
}

func needsSanitize(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 && c != '\t' && c != '\n' || c == 0x7f {
			return true
		}
	}
	return false
}

func dropControl(r rune) rune {
	if r == '\t' || r >= 0x20 && r != 0x7f {
		return r
	}
	return -1
}

// overwrite replays carriage returns within one line. Text after a CR
// overwrites from the start; a shorter segment leaves the tail in place.
func overwrite(line string) string {
	segs := strings.Split(line, "\r")
	buf := []rune(segs[0])
	for _, seg := range segs[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}
