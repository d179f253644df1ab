package compress_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/hive/compress"
	"github.com/stretchr/testify/assert"
)

// pad appends filler lines so short fixtures clear compress.MinLength
// without matching any other rule.
func pad(s string, n int) string {
	var b strings.Builder
	b.WriteString(s)
	for i := range n {
		fmt.Fprintf(&b, "filler line %d\n", i)
	}
	return b.String()
}

func TestCompress_Passthrough(t *testing.T) {
	t.Parallel()

	t.Run("small output", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", compress.Compress("hello world", false))
	})

	t.Run("error output", func(t *testing.T) {
		t.Parallel()
		in := strings.Repeat("E\n", 1000)
		assert.Equal(t, in, compress.Compress(in, true))
	})

	t.Run("just below threshold", func(t *testing.T) {
		t.Parallel()
		in := strings.Repeat("x", compress.MinLength-1)
		assert.Equal(t, in, compress.Compress(in, false))
	})

	t.Run("no rule matches", func(t *testing.T) {
		t.Parallel()
		in := pad("", 50)
		assert.Equal(t, in, compress.Compress(in, false))
	})
}

func TestCompress_Build(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	for i := range 20 {
		fmt.Fprintf(&b, "   Compiling crate-%d v0.1.0\n", i)
	}
	for i := range 3 {
		fmt.Fprintf(&b, "  Downloading dep-%d v1.0.0\n", i)
	}
	b.WriteString("    Fetching index\n")
	b.WriteString("error[E0308]: mismatched types\n")
	b.WriteString("warning: unused variable `x`\n")
	b.WriteString("    Finished `dev` profile [unoptimized + debuginfo] target(s) in 5.2s\n")

	out := compress.Compress(b.String(), false)
	assert.Equal(t, "Compiled 20 crates, downloaded 3 crates\n"+
		"\n1 error(s):\n"+
		"error[E0308]: mismatched types\n"+
		"\n1 warning(s):\n"+
		"warning: unused variable `x`\n"+
		"    Finished `dev` profile [unoptimized + debuginfo] target(s) in 5.2s", out)
}

func TestCompress_BuildNeedsFiveProgressLines(t *testing.T) {
	t.Parallel()
	in := pad("   Compiling a v0.1.0\n   Compiling b v0.1.0\n", 40)
	assert.Equal(t, in, compress.Compress(in, false))
}

func TestCompress_GitStatus(t *testing.T) {
	t.Parallel()
	in := `On branch feat/my-feature
Your branch is up to date with 'origin/feat/my-feature'.

Changes to be committed:
  (use "git restore --staged <file>..." to unstage)
        new file:   src/added.go
        deleted:    src/gone.go

Changes not staged for commit:
  (use "git add <file>..." to update what will be committed)
  (use "git restore <file>..." to discard changes in working directory)
        modified:   src/main.go
        modified:   src/lib.go
        modified:   src/utils/helper.go

Untracked files:
  (use "git add <file>..." to include in what will be committed)
        src/new_file.go
        tests/test_new.go
`
	out := compress.Compress(in, false)
	assert.Equal(t, "branch: feat/my-feature (up to date)"+
		"\nA src/added.go"+
		"\nM src/main.go, src/lib.go, src/utils/helper.go"+
		"\nD src/gone.go"+
		"\n? src/new_file.go, tests/test_new.go", out)
}

func TestCompress_GitStatusTracking(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		tracking string
		want     string
	}{
		{"ahead", "Your branch is ahead of 'origin/main' by 3 commits.", " (ahead)"},
		{"behind", "Your branch is behind 'origin/main' by 2 commits, and can be fast-forwarded.", " (behind)"},
		{"diverged", "Your branch and 'origin/main' have diverged, and have 1 and 2 different commits each, respectively. ahead behind", " (diverged)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := "On branch main\n" + tt.tracking + "\n\nChanges not staged for commit:\n" +
				strings.Repeat("        modified:   pkg/some/really/long/path/to/file.go\n", 12)
			out := compress.Compress(in, false)
			assert.True(t, strings.HasPrefix(out, "branch: main"+tt.want), out)
		})
	}
}

func TestCompress_GitDiff(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	b.WriteString("diff --git a/src/main.go b/src/main.go\n")
	b.WriteString("index abc123..def456 100644\n")
	b.WriteString("--- a/src/main.go\n")
	b.WriteString("+++ b/src/main.go\n")
	for i := range 5 {
		fmt.Fprintf(&b, "@@ -%d,6 +%d,7 @@ func main() {\n", i*10, i*10)
		b.WriteString("     x := 1\n")
		fmt.Fprintf(&b, "+    y%d := 2\n", i)
		b.WriteString("     z := 3\n")
		b.WriteString("     w := 4\n")
	}
	b.WriteString("diff --git a/README.md b/README.md\n")
	b.WriteString("@@ -1 +1 @@\n")
	b.WriteString("-old title\n")
	b.WriteString("+new title\n")

	out := compress.Compress(b.String(), false)
	assert.Contains(t, out, "--- src/main.go ---")
	assert.Contains(t, out, "+    y0 := 2")
	assert.Contains(t, out, "+    y2 := 2")
	assert.NotContains(t, out, "y3")
	assert.Contains(t, out, "  ... (more hunks in src/main.go)")
	assert.NotContains(t, out, "     x := 1")
	assert.NotContains(t, out, "+++ b/src/main.go")
	assert.Contains(t, out, "--- README.md ---")
	assert.Contains(t, out, "-old title\n+new title")
	assert.Equal(t, 1, strings.Count(out, "more hunks"))
}

func TestCompress_GitLog(t *testing.T) {
	t.Parallel()
	in := `commit abcdef1234567890abcdef1234567890abcdef12
Author: John Doe <john@example.com>
Date:   Mon Jan 1 12:00:00 2024 +0000

    feat: add new feature

    Longer body that should be dropped from the summary.

commit 1234567890abcdef1234567890abcdef12345678
Author: Jane Smith <jane@example.com>
Date:   Sun Dec 31 10:00:00 2023 +0000

    fix: resolve bug

    The parser dropped the final token when the input ended without a newline.

commit 0000000000000000000000000000000000000000
Author: Bot
Date:   Sat Dec 30 10:00:00 2023 +0000

    chore: bump

    Update dependencies to their latest patch releases.
`
	out := compress.Compress(in, false)
	assert.Equal(t, "abcdef12 feat: add new feature (John Doe, Mon Jan 1 12:00:00 2024 +0000)\n"+
		"12345678 fix: resolve bug (Jane Smith, Sun Dec 31 10:00:00 2023 +0000)\n"+
		"00000000 chore: bump (Bot, Sat Dec 30 10:00:00 2023 +0000)", out)
}

func TestCompress_CargoTest(t *testing.T) {
	t.Parallel()

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		in := "running 107 tests\n" + strings.Repeat("test some::module::test_case ... ok\n", 20) +
			"\ntest result: ok. 107 passed; 0 failed; 0 ignored; 0 measured; 0 filtered out; finished in 0.10s\n"
		assert.Equal(t, "107 tests passed (0.10s)", compress.Compress(in, false))
	})

	t.Run("failures", func(t *testing.T) {
		t.Parallel()
		in := "running 10 tests\n" + strings.Repeat("test some::module::test_ok ... ok\n", 9) +
			"test test_b ... FAILED\n\nfailures:\n\n" +
			"---- test_b stdout ----\n" +
			"thread 'test_b' panicked at src/lib.rs:42:\n" +
			"assertion `left == right` failed\n" +
			"  left: \"foo\"\n" +
			" right: \"bar\"\n\n" +
			"failures:\n    test_b\n\n" +
			"test result: FAILED. 9 passed; 1 failed; 0 ignored; 0 measured; 0 filtered out; finished in 0.05s\n"
		assert.Equal(t, "FAIL test_b:\n"+
			"  thread 'test_b' panicked at src/lib.rs:42:\n"+
			"  assertion `left == right` failed\n"+
			"  left: \"foo\"\n"+
			"  right: \"bar\"\n"+
			"10 tests: 9 passed, 1 failed (0.05s)", compress.Compress(in, false))
	})
}

func TestCompress_JestTest(t *testing.T) {
	t.Parallel()

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		in := strings.Repeat("PASS src/components/some/deeply/nested/app.test.ts\n", 12) +
			"\nTest Suites: 12 passed, 12 total\nTests:       15 passed, 15 total\nSnapshots:   0 total\nTime:        2.5s\n"
		assert.Equal(t, "15 tests passed (2.5s)", compress.Compress(in, false))
	})

	t.Run("failures", func(t *testing.T) {
		t.Parallel()
		in := strings.Repeat("PASS src/components/some/deeply/nested/app.test.ts\n", 10) +
			"FAIL src/broken.test.ts\n" +
			"  ● adds numbers\n" +
			"    expect(received).toBe(expected)\n" +
			"\nTests:       1 failed, 14 passed, 15 total\nTime:        3.1s\n"
		assert.Equal(t, "FAIL src/broken.test.ts\n"+
			"expect(received).toBe(expected)\n"+
			"15 tests: 14 passed, 1 failed (3.1s)", compress.Compress(in, false))
	})
}

func TestCompress_Pytest(t *testing.T) {
	t.Parallel()

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		in := "============================= test session starts ==============================\n" +
			strings.Repeat("tests/test_module_with_long_name.py ........                          [ 10%]\n", 6) +
			"============================== 42 passed in 0.31s ==============================\n"
		assert.Equal(t, "42 tests passed", compress.Compress(in, false))
	})

	t.Run("failures", func(t *testing.T) {
		t.Parallel()
		in := "============================= test session starts ==============================\n" +
			strings.Repeat("tests/test_module_with_long_name.py ........                          [ 10%]\n", 5) +
			"E       assert 1 == 2\n" +
			"FAILED tests/test_x.py::test_add - assert 1 == 2\n" +
			"=========================== 1 failed, 5 passed in 0.20s ===========================\n"
		assert.Equal(t, "E       assert 1 == 2\n"+
			"FAILED tests/test_x.py::test_add - assert 1 == 2\n"+
			"6 tests: 5 passed, 1 failed", compress.Compress(in, false))
	})
}

func TestCompress_Generic(t *testing.T) {
	t.Parallel()

	t.Run("dedups runs", func(t *testing.T) {
		t.Parallel()
		in := strings.Repeat("Processing item...\n", 250) + "done\n"
		assert.Equal(t, "Processing item... [x250]\ndone", compress.Compress(in, false))
	})

	t.Run("caps distinct lines", func(t *testing.T) {
		t.Parallel()
		var b strings.Builder
		for i := range 300 {
			fmt.Fprintf(&b, "line %d\n", i)
		}
		out := compress.Compress(b.String(), false)
		ls := strings.Split(out, "\n")
		assert.Equal(t, "line 0", ls[0])
		assert.Equal(t, "line 99", ls[99])
		assert.Equal(t, "... (200 more lines omitted, 300 total)", ls[len(ls)-1])
		assert.Len(t, ls, compress.MaxOutputLines+2)
	})

	t.Run("200 lines is not enough", func(t *testing.T) {
		t.Parallel()
		var b strings.Builder
		for i := range 200 {
			fmt.Fprintf(&b, "line %d\n", i)
		}
		assert.Equal(t, b.String(), compress.Compress(b.String(), false))
	})
}

func TestCompress_Idempotent(t *testing.T) {
	t.Parallel()
	var build strings.Builder
	for i := range 40 {
		fmt.Fprintf(&build, "   Compiling crate-with-a-long-name-%d v0.1.0\n", i)
	}
	var generic strings.Builder
	for i := range 400 {
		fmt.Fprintf(&generic, "some repeated-ish output line number %d\n", i)
	}
	inputs := []string{build.String(), generic.String(), strings.Repeat("same\n", 600)}
	for _, in := range inputs {
		once := compress.Compress(in, false)
		assert.Equal(t, once, compress.Compress(once, false))
		assert.LessOrEqual(t, len(once), len(in))
	}
}
