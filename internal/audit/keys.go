package audit

import (
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyInfo describes one key found in the credential directory.
type KeyInfo struct {
	Name        string `json:"name"`
	HasPrivate  bool   `json:"has_private"`
	HasPublic   bool   `json:"has_public"`
	Type        string `json:"type,omitempty"`
	Bits        int    `json:"bits,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Complete reports whether both halves of the pair are present.
func (k KeyInfo) Complete() bool {
	return k.HasPrivate && k.HasPublic
}

// Inventory lists the candidates in names that have at least a public key in
// dir. Public keys are parsed to report algorithm, size and fingerprint.
func Inventory(dir string, names []string) []KeyInfo {
	var keys []KeyInfo
	for _, name := range names {
		priv := filepath.Join(dir, name)
		info := KeyInfo{
			Name:       name,
			HasPrivate: exists(priv),
			HasPublic:  exists(priv + ".pub"),
		}
		if !info.HasPublic {
			continue
		}
		if err := info.loadPublic(priv + ".pub"); err != nil {
			info.Error = err.Error()
		}
		keys = append(keys, info)
	}
	return keys
}

func (k *KeyInfo) loadPublic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	k.Type = pub.Type()
	k.Comment = comment
	k.Fingerprint = ssh.FingerprintSHA256(pub)
	k.Bits = keyBits(pub)
	return nil
}

// keyBits returns the modulus size of RSA keys and the fixed size of the
// other algorithms.
func keyBits(pub ssh.PublicKey) int {
	switch pub.Type() {
	case ssh.KeyAlgoED25519:
		return 256
	case ssh.KeyAlgoECDSA256:
		return 256
	case ssh.KeyAlgoECDSA384:
		return 384
	case ssh.KeyAlgoECDSA521:
		return 521
	case ssh.KeyAlgoDSA:
		return 1024
	}
	if cpk, ok := pub.(ssh.CryptoPublicKey); ok {
		if rsaKey, ok := cpk.CryptoPublicKey().(*rsa.PublicKey); ok {
			return rsaKey.N.BitLen()
		}
	}
	return 0
}

// Weak reports why a key falls below the recommended policy, or "".
func (k KeyInfo) Weak() string {
	switch {
	case k.Type == ssh.KeyAlgoDSA:
		return "DSA keys are deprecated"
	case k.Type == ssh.KeyAlgoRSA && k.Bits > 0 && k.Bits < 2048:
		return fmt.Sprintf("RSA key of %d bits is below the 2048-bit minimum", k.Bits)
	}
	return ""
}

// FormatInventory renders keys as one line per key.
func FormatInventory(keys []KeyInfo) string {
	var b strings.Builder
	for _, k := range keys {
		if k.Complete() {
			fmt.Fprintf(&b, "✓ %s (private and public)", k.Name)
		} else {
			fmt.Fprintf(&b, "! %s.pub (public only)", k.Name)
		}
		if k.Error != "" {
			fmt.Fprintf(&b, " - %s\n", k.Error)
			continue
		}
		fmt.Fprintf(&b, " %s", k.Type)
		if k.Bits > 0 {
			fmt.Fprintf(&b, " %d bits", k.Bits)
		}
		fmt.Fprintf(&b, " %s", k.Fingerprint)
		if k.Comment != "" {
			fmt.Fprintf(&b, " %s", k.Comment)
		}
		if weak := k.Weak(); weak != "" {
			fmt.Fprintf(&b, " [%s]", weak)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
