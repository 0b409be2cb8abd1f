// Package audit inspects the access modes of the SSH credential directory,
// key files and client configuration. It only reads: permissions are never
// changed and no network I/O is performed.
package audit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Verdict classifies one inspected path.
type Verdict string

const (
	VerdictOK         Verdict = "ok"
	VerdictWarn       Verdict = "warn"
	VerdictMissing    Verdict = "missing"
	VerdictUnreadable Verdict = "unreadable"
)

// Expected modes.
const (
	DirMode        = "700"
	PrivateKeyMode = "600"
	ConfigMode     = "600"
	ConfigAltMode  = "644"
)

// DefaultKeyNames are the conventional private key file names.
var DefaultKeyNames = []string{"id_rsa", "id_ed25519", "id_ecdsa", "id_dsa"}

// Check is the result of auditing one path.
type Check struct {
	Path     string  `json:"path"`
	Observed string  `json:"observed_mode,omitempty"`
	Expected string  `json:"expected_mode"`
	Verdict  Verdict `json:"verdict"`
	Detail   string  `json:"detail,omitempty"`
}

// Directory audits path against a single expected mode.
func Directory(path, expected string) Check {
	return inspect(path, expected, expected)
}

// ConfigFile audits a client configuration file. Both 600 and 644 are
// acceptable.
func ConfigFile(path string) Check {
	return inspect(path, ConfigMode+" or "+ConfigAltMode, ConfigMode, ConfigAltMode)
}

// KeySet audits the private key of every candidate in names that has both a
// private and a public file in dir. Other candidates are skipped.
func KeySet(dir string, names []string) []Check {
	var checks []Check
	for _, name := range names {
		priv := filepath.Join(dir, name)
		if !exists(priv) || !exists(priv+".pub") {
			continue
		}
		checks = append(checks, inspect(priv, PrivateKeyMode, PrivateKeyMode))
	}
	return checks
}

// Audit runs the full client-side audit of dir: the directory itself, the
// default key set and the config file. A missing directory ends the audit.
func Audit(dir string) []Check {
	checks := []Check{Directory(dir, DirMode)}
	if checks[0].Verdict == VerdictMissing {
		return checks
	}
	checks = append(checks, KeySet(dir, DefaultKeyNames)...)

	cfg := ConfigFile(filepath.Join(dir, "config"))
	if cfg.Verdict != VerdictMissing {
		checks = append(checks, cfg)
	}
	return checks
}

func inspect(path, expected string, accepted ...string) Check {
	c := Check{Path: path, Expected: expected}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.Verdict = VerdictMissing
		return c
	}
	if err != nil {
		log.Debug().Str("path", path).Err(err).Msg("Stat failed")
		c.Verdict = VerdictUnreadable
		c.Detail = err.Error()
		return c
	}

	c.Observed = modeString(info.Mode())
	c.Verdict = VerdictWarn
	for _, mode := range accepted {
		if c.Observed == mode {
			c.Verdict = VerdictOK
			break
		}
	}
	return c
}

func modeString(m fs.FileMode) string {
	return fmt.Sprintf("%03o", m.Perm())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FormatChecks renders checks as one line per path.
func FormatChecks(checks []Check) string {
	var b strings.Builder
	for _, c := range checks {
		switch c.Verdict {
		case VerdictOK:
			fmt.Fprintf(&b, "✓ %s: %s\n", c.Path, c.Observed)
		case VerdictWarn:
			fmt.Fprintf(&b, "! %s: %s (recommended: %s)\n", c.Path, c.Observed, c.Expected)
		case VerdictMissing:
			fmt.Fprintf(&b, "✗ %s: not found\n", c.Path)
		case VerdictUnreadable:
			fmt.Fprintf(&b, "✗ %s: cannot read mode: %s\n", c.Path, c.Detail)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ExpandHome replaces a leading ~ with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
