package compress

import (
	"fmt"
	"regexp"
	"strings"
)

// maxHunksPerFile bounds the hunks kept for each file of a diff.
const maxHunksPerFile = 3

var (
	gitLogHash   = regexp.MustCompile(`^commit ([a-f0-9]{40})`)
	gitLogAuthor = regexp.MustCompile(`^Author:\s+(.+)$`)
	gitLogDate   = regexp.MustCompile(`^Date:\s+(.+)$`)
)

func compressGitStatus(content string) (string, bool) {
	if !strings.HasPrefix(content, "On branch ") && !strings.HasPrefix(content, "HEAD detached at ") {
		return "", false
	}
	hasUntracked := strings.Contains(content, "Untracked files:")

	var branch, tracking string
	var added, modified, deleted, untracked []string
	for _, l := range lines(content) {
		t := strings.TrimSpace(l)
		switch {
		case strings.HasPrefix(t, "On branch "):
			branch = strings.TrimPrefix(t, "On branch ")
		case strings.HasPrefix(t, "HEAD detached at "):
			branch = t
		case strings.Contains(t, "up to date"):
			tracking = " (up to date)"
		case tracking == "" && (strings.Contains(t, "ahead of") || strings.Contains(t, "behind")):
			tracking = aheadBehind(t)
		case strings.HasPrefix(t, "modified:"):
			modified = append(modified, strings.TrimSpace(strings.TrimPrefix(t, "modified:")))
		case strings.HasPrefix(t, "new file:"):
			added = append(added, strings.TrimSpace(strings.TrimPrefix(t, "new file:")))
		case strings.HasPrefix(t, "deleted:"):
			deleted = append(deleted, strings.TrimSpace(strings.TrimPrefix(t, "deleted:")))
		case hasUntracked && isStatusNoise(t):
		case hasUntracked && looksLikePath(t):
			untracked = append(untracked, t)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "branch: %s%s", branch, tracking)
	writeList(&b, "A", added)
	writeList(&b, "M", modified)
	writeList(&b, "D", deleted)
	writeList(&b, "?", untracked)
	return b.String(), true
}

func aheadBehind(line string) string {
	ahead := strings.Contains(line, "ahead")
	behind := strings.Contains(line, "behind")
	switch {
	case ahead && behind:
		return " (diverged)"
	case ahead:
		return " (ahead)"
	default:
		return " (behind)"
	}
}

func isStatusNoise(t string) bool {
	if t == "" {
		return true
	}
	for _, p := range []string{"(", "Changes", "Untracked", "Your branch", "no changes", "nothing "} {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

func looksLikePath(s string) bool {
	return strings.ContainsAny(s, "/.")
}

func writeList(b *strings.Builder, tag string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s %s", tag, strings.Join(items, ", "))
}

func compressGitDiff(content string) (string, bool) {
	if !strings.Contains(content, "diff --git ") {
		return "", false
	}

	var b strings.Builder
	file := "file"
	hunks := 0
	for _, l := range lines(content) {
		switch {
		case strings.HasPrefix(l, "diff --git "):
			rest := strings.TrimPrefix(l, "diff --git ")
			if _, path, ok := strings.Cut(rest, " b/"); ok {
				file = path
				hunks = 0
				fmt.Fprintf(&b, "\n--- %s ---\n", path)
			}
		case strings.HasPrefix(l, "@@"):
			hunks++
			if hunks <= maxHunksPerFile {
				b.WriteString(l)
				b.WriteByte('\n')
			} else if hunks == maxHunksPerFile+1 {
				fmt.Fprintf(&b, "  ... (more hunks in %s)\n", file)
			}
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
		case strings.HasPrefix(l, "+"), strings.HasPrefix(l, "-"):
			if hunks <= maxHunksPerFile {
				b.WriteString(l)
				b.WriteByte('\n')
			}
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return content, true
	}
	return out, true
}

type logEntry struct {
	hash, subject, author, date string
}

func (e logEntry) String() string {
	return fmt.Sprintf("%s %s (%s, %s)", e.hash, e.subject, e.author, e.date)
}

func compressGitLog(content string) (string, bool) {
	if !gitLogHash.MatchString(content) {
		return "", false
	}

	var entries []string
	var cur *logEntry
	flush := func() {
		if cur != nil {
			entries = append(entries, cur.String())
		}
	}
	for _, l := range lines(content) {
		if m := gitLogHash.FindStringSubmatch(l); m != nil {
			flush()
			cur = &logEntry{hash: m[1][:8]}
			continue
		}
		if cur == nil {
			continue
		}
		if m := gitLogAuthor.FindStringSubmatch(l); m != nil {
			author := strings.TrimSpace(m[1])
			if i := strings.Index(author, " <"); i >= 0 {
				author = author[:i]
			}
			cur.author = author
		} else if m := gitLogDate.FindStringSubmatch(l); m != nil {
			cur.date = strings.TrimSpace(m[1])
		} else if t := strings.TrimSpace(l); t != "" && cur.subject == "" {
			cur.subject = t
		}
	}
	flush()
	return strings.Join(entries, "\n"), true
}
