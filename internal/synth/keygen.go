package synth

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyGenSpec holds the validated arguments of a key generation request.
type KeyGenSpec struct {
	Type     KeyType
	Size     int
	Comment  string
	Filename string
}

// DefaultKeyFilename is the conventional file name for a key type.
func DefaultKeyFilename(t KeyType) string {
	return "id_" + string(t)
}

// KeyGenCommand renders the ssh-keygen invocation for spec. The size flag is
// emitted only for RSA keys and the comment flag only when a comment is set.
func KeyGenCommand(spec KeyGenSpec) string {
	args := []string{"ssh-keygen", "-t", string(spec.Type)}
	if spec.Type == KeyRSA {
		args = append(args, "-b", strconv.Itoa(spec.Size))
	}
	if spec.Comment != "" {
		args = append(args, "-C", shellArg(spec.Comment))
	}
	args = append(args, "-f", keyPath(spec.filename()))
	return strings.Join(args, " ")
}

func (s KeyGenSpec) filename() string {
	if s.Filename == "" {
		return DefaultKeyFilename(s.Type)
	}
	return s.Filename
}

// KeyGenGuide wraps KeyGenCommand with details and next steps.
func KeyGenGuide(spec KeyGenSpec) string {
	file := keyPath(spec.filename())
	var b strings.Builder

	fmt.Fprintf(&b, "Command to generate an %s SSH key:\n\n", strings.ToUpper(string(spec.Type)))
	fmt.Fprintf(&b, "```bash\n%s\n```\n\n", KeyGenCommand(spec))

	b.WriteString("Details:\n")
	fmt.Fprintf(&b, "- Key type: %s\n", strings.ToUpper(string(spec.Type)))
	if spec.Type == KeyRSA {
		fmt.Fprintf(&b, "- Size: %d bits\n", spec.Size)
	}
	fmt.Fprintf(&b, "- Private key: %s\n", file)
	fmt.Fprintf(&b, "- Public key: %s.pub\n", file)
	if spec.Comment != "" {
		fmt.Fprintf(&b, "- Comment: %s\n", spec.Comment)
	}

	b.WriteString("\nImportant:\n")
	b.WriteString("- Keep the private key secret and never share it\n")
	b.WriteString("- The public key can be copied to remote servers\n")
	b.WriteString("- Protect the private key with a strong passphrase\n")
	if spec.Type == KeyRSA && spec.Size < 2048 {
		fmt.Fprintf(&b, "- %d-bit RSA keys are below the 2048-bit minimum; prefer 4096\n", spec.Size)
	}

	b.WriteString("\nNext steps:\n")
	b.WriteString("1. Run the command above\n")
	b.WriteString("2. Enter a strong passphrase when prompted\n")
	fmt.Fprintf(&b, "3. Copy the public key to the server: `ssh-copy-id -i %s.pub user@server`\n", file)

	return b.String()
}
