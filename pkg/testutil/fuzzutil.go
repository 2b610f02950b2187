package testutil

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
)

const MaxFuzzBytes = 2048

type FuzzOptions struct {
	// SkipReference runs only our shell, for crash and hang detection.
	SkipReference bool
	SharedDir     bool
}

var cwdMu sync.Mutex

func ClampString(data string, max int) string {
	if len(data) > max {
		return data[:max]
	}
	return data
}

// SafeWord reports whether s can be placed inside single quotes of a
// generated script and echoed without depending on features shells
// disagree on: globbing, echo options and backslash escapes.
func SafeWord(s string) bool {
	if strings.HasPrefix(s, "-") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte("'\\*?[", c) >= 0 || c < 0x20 || c >= 0x7f {
			return false
		}
	}
	return true
}

func RunAppletInDir(t *testing.T, run RunApplet, args []string, input string, dir string) (string, string, int) {
	t.Helper()
	cwdMu.Lock()
	defer cwdMu.Unlock()

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(oldDir) }()

	stdio, out, errBuf := CaptureStdio(input)
	code := run(stdio, args)
	return out.String(), errBuf.String(), code
}

// RunReferenceInDir runs the reference shell with args in dir.
func RunReferenceInDir(t *testing.T, args []string, input string, dir string) (string, string, int, bool) {
	t.Helper()
	argv, ok := ReferenceShell()
	if !ok {
		return "", "", 0, false
	}
	cmd := Command(argv[0], append(argv[1:], args...)...)
	cmd.Dir = dir
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			t.Fatalf("reference shell %s: %v", argv[0], err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode, true
}

// FuzzCompare runs args through our shell and, unless told otherwise,
// through the reference shell, and fails when stdout or the exit status
// differ.
func FuzzCompare(t *testing.T, applet string, run RunApplet, args []string, input string, files map[string]string, opts FuzzOptions) {
	t.Helper()
	ourDir := TempDirWithFiles(t, files)
	refDir := ourDir
	if !opts.SharedDir {
		refDir = TempDirWithFiles(t, files)
	}
	ourOut, ourErr, ourCode := RunAppletInDir(t, run, args, input, ourDir)
	if opts.SkipReference {
		return
	}
	refOut, refErr, refCode, ok := RunReferenceInDir(t, args, input, refDir)
	if !ok {
		return
	}
	CompareReferenceOutput(t, applet, ourOut, ourErr, ourCode, refOut, refErr, refCode)
}

// CompareReferenceOutput compares our results with the reference shell's.
// Diagnostics are worded differently between shells, so stderr is only
// compared for emptiness.
func CompareReferenceOutput(t *testing.T, applet string, ourOut, ourErr string, ourCode int, refOut, refErr string, refCode int) {
	t.Helper()
	if ourCode != refCode {
		if isUsageError(ourErr) || isUsageError(refErr) {
			return
		}
		t.Fatalf("%s: exit code mismatch: ours=%d reference=%d", applet, ourCode, refCode)
	}
	if !outputsEqual(ourOut, refOut) {
		t.Fatalf("%s: stdout mismatch:\nours:     %q\nreference:%q", applet, ourOut, refOut)
	}
	if (ourErr == "") != (refErr == "") {
		t.Fatalf("%s: stderr mismatch:\nours:     %q\nreference:%q", applet, ourErr, refErr)
	}
}

func isUsageError(err string) bool {
	if err == "" {
		return false
	}
	return strings.Contains(err, "syntax") ||
		strings.Contains(err, "invalid option") ||
		strings.Contains(err, "unexpected")
}

func outputsEqual(a, b string) bool {
	if a == b {
		return true
	}
	trimA := strings.TrimSuffix(a, "\n")
	trimB := strings.TrimSuffix(b, "\n")
	return trimA == trimB
}
