package synth

import (
	"fmt"
	"strings"
)

// TunnelSpec describes a port-forwarding request. RemoteHost and RemotePort
// are ignored for dynamic tunnels.
type TunnelSpec struct {
	Kind       TunnelKind
	LocalPort  int
	RemoteHost string
	RemotePort int
	Server     string
	User       string
}

// TunnelCommand renders the ssh invocation for spec. It is a pure function:
// equal specs always produce byte-identical commands.
func TunnelCommand(spec TunnelSpec) string {
	target := shellArg(spec.User + "@" + spec.Server)
	switch spec.Kind {
	case TunnelRemote:
		return fmt.Sprintf("ssh -R %d:%s:%d %s", spec.LocalPort, shellArg(spec.RemoteHost), spec.RemotePort, target)
	case TunnelDynamic:
		return fmt.Sprintf("ssh -D %d %s", spec.LocalPort, target)
	default:
		return fmt.Sprintf("ssh -L %d:%s:%d %s", spec.LocalPort, shellArg(spec.RemoteHost), spec.RemotePort, target)
	}
}

// TunnelGuide renders the command, its common variants and usage notes.
func TunnelGuide(spec TunnelSpec) string {
	cmd := TunnelCommand(spec)
	var b strings.Builder

	fmt.Fprintf(&b, "SSH tunnel - %s\n\n", strings.ToUpper(string(spec.Kind)))

	switch spec.Kind {
	case TunnelRemote:
		b.WriteString("Remote port forwarding (SSH server -> local -> remote host)\n")
		fmt.Fprintf(&b, "Path: %s:%d -> localhost -> %s:%d\n\n", spec.Server, spec.LocalPort, spec.RemoteHost, spec.RemotePort)
	case TunnelDynamic:
		b.WriteString("Dynamic port forwarding (SOCKS proxy)\n")
		fmt.Fprintf(&b, "Proxy: localhost:%d -> %s -> any destination\n\n", spec.LocalPort, spec.Server)
	default:
		b.WriteString("Local port forwarding (local -> SSH server -> remote host)\n")
		fmt.Fprintf(&b, "Path: localhost:%d -> %s -> %s:%d\n\n", spec.LocalPort, spec.Server, spec.RemoteHost, spec.RemotePort)
	}

	fmt.Fprintf(&b, "Command:\n```bash\n%s\n```\n\n", cmd)

	b.WriteString("Useful options:\n\n")
	fmt.Fprintf(&b, "Keep the tunnel in the background:\n```bash\n%s -N -f\n```\n\n", cmd)
	fmt.Fprintf(&b, "Verbose output for debugging:\n```bash\n%s -v\n```\n\n", cmd)
	fmt.Fprintf(&b, "Use a specific key file:\n```bash\n%s -i ~/.ssh/id_ed25519\n```\n\n", cmd)

	b.WriteString("How to use:\n")
	b.WriteString("1. Run the command above\n")
	switch spec.Kind {
	case TunnelRemote:
		fmt.Fprintf(&b, "2. On the SSH server, connect to localhost:%d\n", spec.LocalPort)
		fmt.Fprintf(&b, "3. Traffic is forwarded to %s:%d\n\n", spec.RemoteHost, spec.RemotePort)
		b.WriteString("Typical uses:\n")
		b.WriteString("- Expose a local service to a remote server\n")
		b.WriteString("- Reverse access to an application behind NAT\n\n")
	case TunnelDynamic:
		fmt.Fprintf(&b, "2. Point applications at the SOCKS proxy localhost:%d\n", spec.LocalPort)
		b.WriteString("3. Their traffic leaves through the SSH server\n\n")
		b.WriteString("Typical uses:\n")
		b.WriteString("- Browse through the SSH server\n")
		b.WriteString("- Reach several internal services without one tunnel each\n\n")
	default:
		fmt.Fprintf(&b, "2. Connect to localhost:%d\n", spec.LocalPort)
		fmt.Fprintf(&b, "3. Traffic is forwarded to %s:%d\n\n", spec.RemoteHost, spec.RemotePort)
		b.WriteString("Typical uses:\n")
		b.WriteString("- Reach a remote database over SSH\n")
		b.WriteString("- Connect to internal services of a private network\n\n")
	}

	b.WriteString("Security considerations:\n")
	b.WriteString("- Tunnels consume resources on the SSH server\n")
	b.WriteString("- Review active forwards regularly\n")
	b.WriteString("- Prefer a VPN for permanent access\n")

	return b.String()
}
