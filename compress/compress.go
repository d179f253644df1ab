// Package compress shrinks tool output before it re-enters the model
// context. Recognized formats (build logs, git, test runners) are reduced
// to their salient lines; anything else large is deduplicated and capped.
package compress

import "strings"

// MinLength is the size below which output is never compressed.
const MinLength = 500

// Compressor is the function form of Compress.
type Compressor func(raw string, isError bool) string

// Compress returns a shorter rendering of raw, or raw itself when it is
// error output, below MinLength or matches nothing worth compressing.
// Rules see the output after Sanitize. The first matching rule wins:
// build, git status, git diff, git log, test runner summaries, then the
// generic fallback.
func Compress(raw string, isError bool) string {
	if isError || len(raw) < MinLength {
		return raw
	}
	clean := Sanitize(raw)
	for _, rule := range rules {
		out, ok := rule(clean)
		if !ok {
			continue
		}
		if len(out) < len(raw) {
			return out
		}
		return raw
	}
	return raw
}

type rule func(string) (string, bool)

var rules = []rule{
	compressBuild,
	compressGitStatus,
	compressGitDiff,
	compressGitLog,
	compressCargoTest,
	compressJSTest,
	compressPytest,
	compressGeneric,
}

// lines splits s into lines without terminators. A trailing newline does
// not produce an empty final line and a trailing \r is removed.
func lines(s string) []string {
	if s == "" {
		return nil
	}
	out := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range out {
		out[i] = strings.TrimSuffix(l, "\r")
	}
	return out
}
