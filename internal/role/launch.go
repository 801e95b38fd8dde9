package role

import (
	"regexp"
	"strings"

	"bitbucket.org/creachadair/shell"
)

var plainWord = regexp.MustCompile(`^[A-Za-z0-9_./:=,@%+-]+$`)

// quote leaves plain words untouched and shell-quotes everything else.
func quote(s string) string {
	if plainWord.MatchString(s) {
		return s
	}
	return shell.Quote(s)
}

func join(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = quote(w)
	}
	return strings.Join(quoted, " ")
}

// Property is one -Dname=value interpreter flag.
type Property struct {
	Name  string
	Value string
}

func (p Property) String() string {
	return "-D" + p.Name + "=" + p.Value
}

// Launch describes a backgrounded remote process.
type Launch struct {
	Interpreter string
	// Extra are operator supplied interpreter flags, placed first
	Extra []string
	// Options are the variant flags
	Options    []string
	Properties []Property
	Jar        string
	Args       []string

	// Stdin is redirected into the process when set
	Stdin string
	// Stdout receives stdout and stderr. A backgrounded process that keeps the
	// session's streams open would block the remote call until it exits.
	Stdout string
}

// Argv returns the process argument vector.
func (l Launch) Argv() []string {
	argv := []string{l.Interpreter}
	argv = append(argv, l.Extra...)
	argv = append(argv, l.Options...)
	for _, p := range l.Properties {
		argv = append(argv, p.String())
	}
	argv = append(argv, "-jar", l.Jar)
	argv = append(argv, l.Args...)
	return argv
}

// Command renders the shell line that starts the process in the background.
func (l Launch) Command() string {
	var sb strings.Builder
	sb.WriteString(join(l.Argv()))
	if l.Stdin != "" {
		sb.WriteString(" < " + quote(l.Stdin))
	}
	if l.Stdout != "" {
		sb.WriteString(" > " + quote(l.Stdout) + " 2>&1")
	} else {
		sb.WriteString(" > /dev/null 2>&1")
	}
	sb.WriteString(" &")
	return sb.String()
}

// TerminateCommand kills every process whose ps line contains all patterns.
func TerminateCommand(patterns ...string) string {
	var sb strings.Builder
	sb.WriteString("ps aux | grep -v grep")
	for _, p := range patterns {
		sb.WriteString(" | grep -F " + quote(p))
	}
	sb.WriteString(" | awk '{print $2}' | xargs kill -9")
	return sb.String()
}

// SplitFlags splits an operator supplied flag string with shell rules.
func SplitFlags(s string) ([]string, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	return shell.Split(s)
}

// MkdirCommand creates dir and its parents.
func MkdirCommand(dir string) string {
	return "mkdir -p " + quote(dir)
}

// RemoveCommand removes dir recursively; an absent dir is not an error.
func RemoveCommand(dir string) string {
	return "rm -rf " + quote(dir)
}

// removeContentsCommand empties dir while keeping it.
func removeContentsCommand(dir string) string {
	return "rm -rf " + quote(strings.TrimSpace(dir)) + "/*"
}

// writeFileCommand writes content verbatim to a remote file.
func writeFileCommand(content, dest string) string {
	return "printf %s " + quote(content) + " > " + quote(dest)
}

func echoCommand(value, dest string) string {
	return "echo " + quote(value) + " > " + quote(dest)
}
