package ash_test

import (
	"testing"

	"github.com/rcarmo/go-ash/pkg/applets/ash"
	"github.com/rcarmo/go-ash/pkg/testutil"
)

func FuzzAsh(f *testing.F) {
	f.Add([]byte("echo ok"))
	f.Add([]byte("echo ok | cat"))
	f.Add([]byte("echo ok > out.txt"))
	f.Add([]byte("for x in a b; do echo $x; done"))
	f.Add([]byte("while true; do echo ok; break; done"))
	f.Add([]byte("if true; then echo $(echo ok); fi"))
	if testing.Short() {
		f.Skip("fuzzing skipped in short mode")
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		cmd := testutil.ClampString(string(data), 64)
		if cmd == "" {
			cmd = "echo ok"
		}
		// parse only: arbitrary input must not run arbitrary programs
		args := []string{"-n", "-c", cmd}
		testutil.FuzzCompare(t, "ash", ash.Run, args, "", nil, testutil.FuzzOptions{SharedDir: true, SkipReference: true})
	})
}

func FuzzAshAgainstReference(f *testing.F) {
	f.Add("echo a b c")
	f.Add("false && echo no; echo $?")
	f.Add("X='a b'; for w in $X; do echo $w; done")
	f.Add("echo $(echo x) y")
	f.Add("while true; do echo once; break; done")
	if testing.Short() {
		f.Skip("fuzzing skipped in short mode")
	}
	f.Fuzz(func(t *testing.T, word string) {
		word = testutil.ClampString(word, 32)
		if !testutil.SafeWord(word) {
			t.Skip()
		}
		args := []string{"-c", "X='" + word + "'; echo $X; echo \"$X\""}
		testutil.FuzzCompare(t, "ash", ash.Run, args, "", nil, testutil.FuzzOptions{SharedDir: true})
	})
}
