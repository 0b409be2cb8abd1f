package synth

import (
	"strings"
)

// shellQuote quotes a string for safe shell use.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	escaped := strings.ReplaceAll(s, "'", "'\"'\"'")
	return "'" + escaped + "'"
}

// shellArg returns s unchanged when every byte is shell-safe, otherwise the
// single-quoted form. Plain hostnames, users and comments stay readable.
func shellArg(s string) string {
	if s == "" {
		return "''"
	}
	for i := 0; i < len(s); i++ {
		if !isSafeByte(s[i]) {
			return shellQuote(s)
		}
	}
	return s
}

func isSafeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("@%+=:,./_-", c) >= 0
}

// keyPath renders the -f target. Bare names live under ~/.ssh, and the tilde
// is left outside the quotes so the shell still expands it.
func keyPath(filename string) string {
	if strings.Contains(filename, "/") {
		if rest, ok := strings.CutPrefix(filename, "~/"); ok {
			return "~/" + shellArg(rest)
		}
		return shellArg(filename)
	}
	return "~/.ssh/" + shellArg(filename)
}
