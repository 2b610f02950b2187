package testutil

import "os/exec"

// Command wraps exec.Command for test helpers.
func Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...) // #nosec G204 -- test helper for external command
}

// ReferenceShell returns the command line of a POSIX shell to compare
// against: busybox ash when installed, otherwise dash. ok is false when
// neither is available.
func ReferenceShell() (argv []string, ok bool) {
	if path, err := exec.LookPath("busybox"); err == nil {
		return []string{path, "ash"}, true
	}
	if path, err := exec.LookPath("dash"); err == nil {
		return []string{path}, true
	}
	return nil, false
}
