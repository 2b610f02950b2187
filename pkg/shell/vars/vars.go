// Package vars implements the shell variable store.
package vars

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rcarmo/go-ash/pkg/shell/syntax"
)

// Flags describe a variable.
type Flags uint8

const (
	// Exported variables are passed to child processes.
	Exported Flags = 1 << iota
	// ReadOnly variables cannot be changed or unset.
	ReadOnly
	// Fixed marks built-in defaults that survive unset.
	Fixed
)

// DefaultIFS is the field separator used when IFS is unset.
const DefaultIFS = " \t\n"

// Errors returned by Set and Unset.
var (
	ErrReadOnly = errors.New("is read only")
	ErrBadName  = errors.New("bad variable name")
)

// Error reports a failed variable operation.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Var is a single variable.
type Var struct {
	Value string
	Flags Flags
	set   bool
}

// Store maps names to variables.
type Store struct {
	m map[string]*Var
}

// New returns an empty store.
func New() *Store {
	return &Store{m: make(map[string]*Var)}
}

// FromEnviron returns a store seeded with the shell defaults and then the
// NAME=value entries of environ, which are all exported.
func FromEnviron(environ []string) *Store {
	s := New()
	ps1 := "$ "
	if os.Geteuid() == 0 {
		ps1 = "# "
	}
	s.fixed("PS1", ps1)
	s.fixed("PS2", "> ")
	s.fixed("PS4", "+ ")
	s.fixed("IFS", DefaultIFS)
	s.fixed("LINENO", "1")
	_ = s.Set("PPID", strconv.Itoa(os.Getppid()), 0)
	for _, kv := range environ {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || !syntax.IsName(name) {
			continue
		}
		_ = s.Set(name, val, Exported)
	}
	return s
}

func (s *Store) fixed(name, val string) {
	s.m[name] = &Var{Value: val, Flags: Fixed, set: true}
}

// Lookup returns the value of name and whether it is set.
func (s *Store) Lookup(name string) (string, bool) {
	v, ok := s.m[name]
	if !ok || !v.set {
		return "", false
	}
	return v.Value, true
}

// Get returns the value of name, or "" if unset.
func (s *Store) Get(name string) string {
	val, _ := s.Lookup(name)
	return val
}

// Var returns the variable record for name.
func (s *Store) Var(name string) (Var, bool) {
	v, ok := s.m[name]
	if !ok {
		return Var{}, false
	}
	return *v, true
}

// Set assigns val to name and adds flags.
func (s *Store) Set(name, val string, flags Flags) error {
	if !syntax.IsName(name) {
		return &Error{Name: name, Err: ErrBadName}
	}
	v, ok := s.m[name]
	if !ok {
		s.m[name] = &Var{Value: val, Flags: flags, set: true}
		return nil
	}
	if v.Flags&ReadOnly != 0 {
		return &Error{Name: name, Err: ErrReadOnly}
	}
	v.Value = val
	v.Flags |= flags
	v.set = true
	return nil
}

// SetFlags adds flags to name without changing its value. The variable is
// created unset if it does not exist.
func (s *Store) SetFlags(name string, flags Flags) error {
	if !syntax.IsName(name) {
		return &Error{Name: name, Err: ErrBadName}
	}
	v, ok := s.m[name]
	if !ok {
		v = &Var{}
		s.m[name] = v
	}
	v.Flags |= flags
	return nil
}

// Unset removes name. Fixed variables keep their record but lose their value.
func (s *Store) Unset(name string) error {
	v, ok := s.m[name]
	if !ok {
		return nil
	}
	if v.Flags&ReadOnly != 0 {
		return &Error{Name: name, Err: ErrReadOnly}
	}
	if v.Flags&Fixed != 0 {
		v.Value = ""
		v.set = false
		return nil
	}
	delete(s.m, name)
	return nil
}

// Environ returns the exported variables as sorted NAME=value strings.
func (s *Store) Environ() []string {
	env := make([]string, 0, len(s.m))
	for name, v := range s.m {
		if v.Flags&Exported != 0 && v.set {
			env = append(env, name+"="+v.Value)
		}
	}
	sort.Strings(env)
	return env
}

// Each calls fn for every set variable in name order.
func (s *Store) Each(fn func(name string, v Var)) {
	names := make([]string, 0, len(s.m))
	for name := range s.m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := s.m[name]; v.set {
			fn(name, *v)
		}
	}
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{m: make(map[string]*Var, len(s.m))}
	for name, v := range s.m {
		vv := *v
		c.m[name] = &vv
	}
	return c
}
