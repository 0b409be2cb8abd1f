package audit

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

var (
	// ErrOutsideDir is returned for paths that resolve outside the credential directory.
	ErrOutsideDir = errors.New("path is outside the SSH directory")
	// ErrPrivateKey is returned for conventional private key file names.
	ErrPrivateKey = errors.New("refusing to read a private key")
)

// ConfinePath resolves path (leading ~ expanded, symlinks followed) and
// returns it only if it names a file strictly inside dir that is not one of
// the DefaultKeyNames private keys. The file itself need not exist.
func ConfinePath(dir, path string) (string, error) {
	root, err := resolve(ExpandHome(dir))
	if err != nil {
		return "", fmt.Errorf("failed to resolve SSH directory: %w", err)
	}
	target, err := resolve(ExpandHome(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDir, path)
	}

	base := filepath.Base(target)
	for _, name := range DefaultKeyNames {
		if base == name {
			return "", fmt.Errorf("%w: %s", ErrPrivateKey, path)
		}
	}
	return target, nil
}

// resolve returns the absolute, symlink-free form of path. When the leaf
// does not exist its parent is resolved instead.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs, nil
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}

// LooksLikePrivateKey reports whether data holds private key material,
// encrypted or not.
func LooksLikePrivateKey(data []byte) bool {
	if bytes.Contains(data, []byte("PRIVATE KEY-----")) {
		return true
	}
	_, err := ssh.ParseRawPrivateKey(data)
	return err == nil
}
