package synth

import (
	"fmt"
	"strings"
)

// DefaultSSHPort is the port ssh assumes when none is given.
const DefaultSSHPort = 22

// ConnectCommand renders the plain ssh login command. The port flag is only
// emitted for non-default ports.
func ConnectCommand(host, user string, port int) string {
	cmd := "ssh " + shellArg(user+"@"+host)
	if port != DefaultSSHPort {
		cmd += fmt.Sprintf(" -p %d", port)
	}
	return cmd
}

// ConnectionGuide renders the diagnostic commands for reaching user@host:port.
func ConnectionGuide(host, user string, port int) string {
	cmd := ConnectCommand(host, user, port)
	var b strings.Builder

	fmt.Fprintf(&b, "Connect:\n```bash\n%s\n```\n\n", cmd)
	fmt.Fprintf(&b, "Verbose diagnostics:\n```bash\n%s -v\n```\n\n", cmd)
	fmt.Fprintf(&b, "Network reachability:\n```bash\nnc -zv %s %d\n```\n\n", shellArg(host), port)
	fmt.Fprintf(&b, "Server host key:\n```bash\nssh-keyscan -p %d %s\n```\n\n", port, shellArg(host))

	b.WriteString("Troubleshooting:\n\n")
	b.WriteString("1. Connection timeout:\n")
	b.WriteString("   - Check that the host is reachable on the network\n")
	b.WriteString("   - Confirm the port\n")
	b.WriteString("   - Check firewalls on both ends\n\n")
	b.WriteString("2. Authentication failed:\n")
	b.WriteString("   - Check the user name\n")
	b.WriteString("   - Confirm the key is loaded (ssh-add -l)\n")
	b.WriteString("   - Try password authentication if it is enabled\n\n")
	b.WriteString("3. Unknown host key:\n")
	b.WriteString("   - Verify the key with ssh-keyscan\n")
	b.WriteString("   - Add it to known_hosts only if you trust it\n")

	return b.String()
}

// HostSpec describes one ~/.ssh/config entry.
type HostSpec struct {
	Alias        string
	HostName     string
	User         string
	Port         int
	IdentityFile string
}

// HostEntry renders a Host block for ~/.ssh/config.
func HostEntry(spec HostSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Host %s\n", spec.Alias)
	fmt.Fprintf(&b, "    HostName %s\n", spec.HostName)
	fmt.Fprintf(&b, "    User %s\n", spec.User)
	fmt.Fprintf(&b, "    Port %d\n", spec.Port)
	if spec.IdentityFile != "" {
		identity := spec.IdentityFile
		if !strings.Contains(identity, "/") {
			identity = "~/.ssh/" + identity
		}
		fmt.Fprintf(&b, "    IdentityFile %s\n", identity)
	}
	b.WriteString("    ServerAliveInterval 60\n")
	b.WriteString("    ServerAliveCountMax 3\n")
	return b.String()
}
