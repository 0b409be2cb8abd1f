package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ssh-tools-mcp/internal/audit"
	"ssh-tools-mcp/internal/probe"
	"ssh-tools-mcp/internal/synth"
)

// DefaultSSHDir is the credential directory used when Deps leaves it empty.
const DefaultSSHDir = "~/.ssh"

var portBounds = &Bounds{Min: 1, Max: 65535}

// RSA key sizes accepted by generate_ssh_key.
const (
	minRSABits = 1024
	maxRSABits = 16384
)

// Config tokens: at least one character, no whitespace or control characters,
// so a value cannot start a new line or directive.
const (
	configToken         = `^[^\s\x00-\x1f\x7f]+$`
	optionalConfigToken = `^[^\s\x00-\x1f\x7f]*$`
)

// Deps are the engines the handlers run against.
type Deps struct {
	Prober *probe.Prober
	// SSHDir is the credential directory. A leading ~ is expanded at call time.
	SSHDir string
}

func (d Deps) withDefaults() Deps {
	if d.Prober == nil {
		d.Prober = probe.New(0, 0)
	}
	if d.SSHDir == "" {
		d.SSHDir = DefaultSSHDir
	}
	return d
}

// Catalog returns the tool descriptors in registration order.
func Catalog(deps Deps) []Descriptor {
	deps = deps.withDefaults()

	return []Descriptor{
		{
			Name:        "generate_ssh_key",
			Description: "Generate the ssh-keygen command for a new SSH key pair",
			Params: []Param{
				{Name: "key_type", Type: TypeString, Description: "Key type", Enum: synth.KeyTypes(), Default: string(synth.KeyEd25519)},
				{Name: "key_size", Type: TypeInteger, Description: fmt.Sprintf("Key size in bits, RSA only (%d-%d); ignored for other types", minRSABits, maxRSABits), Default: 4096},
				{Name: "comment", Type: TypeString, Description: "Key comment, usually an email address", Default: ""},
				{
					Name:        "filename",
					Type:        TypeString,
					Description: "Key file name inside ~/.ssh (default id_<key_type>)",
					DefaultFrom: func(a Args) any {
						return synth.DefaultKeyFilename(enumArg[synth.KeyType](a, "key_type"))
					},
				},
			},
			Check:   checkKeySize,
			Handler: generateKeyHandler,
		},
		{
			Name:        "check_ssh_config",
			Description: "Inspect the SSH client configuration file and list the SSH directory",
			Params: []Param{
				{Name: "config_file", Type: TypeString, Description: "Path to the SSH client config, inside the SSH directory", Default: audit.DefaultConfigPath(deps.SSHDir)},
			},
			Check: func(a Args) error {
				_, err := audit.ConfinePath(deps.SSHDir, a.String("config_file"))
				return err
			},
			Handler: checkConfigHandler(deps),
		},
		{
			Name:        "analyze_ssh_connection",
			Description: "Probe an SSH endpoint and generate connection diagnostics",
			Params: []Param{
				{Name: "host", Type: TypeString, Description: "Remote host", Required: true},
				{Name: "user", Type: TypeString, Description: "Remote user", Required: true},
				{Name: "port", Type: TypeInteger, Description: "SSH port", Default: synth.DefaultSSHPort, Bounds: portBounds},
			},
			Handler:   analyzeConnectionHandler(deps),
			OpenWorld: true,
		},
		{
			Name:        "ssh_security_audit",
			Description: "Security audit checklist for SSH client, server or keys",
			Params: []Param{
				{Name: "target_type", Type: TypeString, Description: "Audit target", Enum: synth.AuditTargets(), Default: string(synth.AuditClient)},
			},
			Handler: securityAuditHandler(deps),
		},
		{
			Name:        "create_ssh_tunnel",
			Description: "Generate the ssh command for a local, remote or dynamic tunnel",
			Params: []Param{
				{Name: "local_port", Type: TypeInteger, Description: "Local port", Required: true, Bounds: portBounds},
				{Name: "remote_host", Type: TypeString, Description: "Remote host reached through the tunnel", Required: true},
				{Name: "remote_port", Type: TypeInteger, Description: "Remote port", Required: true, Bounds: portBounds},
				{Name: "ssh_server", Type: TypeString, Description: "SSH server", Required: true},
				{Name: "user", Type: TypeString, Description: "SSH user", Required: true},
				{Name: "tunnel_type", Type: TypeString, Description: "Tunnel type", Enum: synth.TunnelKinds(), Default: string(synth.TunnelLocal)},
			},
			Handler: createTunnelHandler,
		},
		{
			Name:        "check_ssh_connection",
			Description: "Check whether a host accepts TCP connections on its SSH port",
			Params: []Param{
				{Name: "host", Type: TypeString, Description: "Host to check", Default: "localhost"},
				{Name: "port", Type: TypeInteger, Description: "SSH port", Default: synth.DefaultSSHPort, Bounds: portBounds},
				{Name: "timeout", Type: TypeInteger, Description: "Timeout in seconds", Default: int(deps.Prober.ConnectTimeout() / time.Second), Bounds: &Bounds{Min: 1, Max: 60}},
			},
			Handler:   checkConnectionHandler(deps),
			OpenWorld: true,
		},
		{
			Name:        "port_scanner",
			Description: fmt.Sprintf("Scan a range of at most %d ports for open TCP listeners", probe.MaxScanSpan),
			Params: []Param{
				{Name: "host", Type: TypeString, Description: "Host to scan", Default: "localhost"},
				{Name: "start_port", Type: TypeInteger, Description: "First port", Required: true, Bounds: portBounds},
				{Name: "end_port", Type: TypeInteger, Description: "Last port", Required: true, Bounds: portBounds},
				{Name: "timeout_ms", Type: TypeInteger, Description: "Per-port timeout in milliseconds", Default: int(deps.Prober.ScanTimeout() / time.Millisecond), Bounds: &Bounds{Min: 1, Max: 10000}},
			},
			Check: func(a Args) error {
				return probe.CheckRange(a.Int("start_port"), a.Int("end_port"))
			},
			Handler:   portScanHandler(deps),
			OpenWorld: true,
		},
		{
			Name:        "list_ssh_keys",
			Description: "List SSH keys in the SSH directory with type and fingerprint",
			Handler:     listKeysHandler(deps),
		},
		{
			Name:        "generate_ssh_config",
			Description: "Generate a Host entry for ~/.ssh/config",
			Params: []Param{
				{Name: "host", Type: TypeString, Description: "Host alias", Required: true, Pattern: configToken},
				{Name: "hostname", Type: TypeString, Description: "Real host name or IP", Required: true, Pattern: configToken},
				{Name: "user", Type: TypeString, Description: "Remote user", Required: true, Pattern: configToken},
				{Name: "port", Type: TypeInteger, Description: "SSH port", Default: synth.DefaultSSHPort, Bounds: portBounds},
				{Name: "key_file", Type: TypeString, Description: "Identity file, bare names resolve inside ~/.ssh", Default: "", Pattern: optionalConfigToken},
			},
			Handler: generateConfigHandler,
		},
	}
}

// NewDefaultDispatcher builds the registry from Catalog(deps).
func NewDefaultDispatcher(deps Deps) (*Dispatcher, error) {
	r, err := NewRegistry(Catalog(deps)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	return NewDispatcher(r), nil
}

func checkKeySize(a Args) error {
	if enumArg[synth.KeyType](a, "key_type") != synth.KeyRSA {
		return nil
	}
	if size := a.Int("key_size"); size < minRSABits || size > maxRSABits {
		return fmt.Errorf("key_size %d out of range for rsa (%d-%d)", size, minRSABits, maxRSABits)
	}
	return nil
}

func generateKeyHandler(_ context.Context, a Args) (string, error) {
	spec := synth.KeyGenSpec{
		Type:     enumArg[synth.KeyType](a, "key_type"),
		Size:     a.Int("key_size"),
		Comment:  a.String("comment"),
		Filename: a.String("filename"),
	}
	return synth.KeyGenGuide(spec), nil
}

func checkConfigHandler(deps Deps) Handler {
	return func(_ context.Context, a Args) (string, error) {
		path, err := audit.ConfinePath(deps.SSHDir, a.String("config_file"))
		if err != nil {
			return "", err
		}
		summary := audit.InspectConfig(path)
		dir := audit.ExpandHome(deps.SSHDir)
		files, listErr := audit.ListDirectory(dir)
		return audit.FormatConfigSummary(summary, dir, files, listErr), nil
	}
}

func analyzeConnectionHandler(deps Deps) Handler {
	return func(ctx context.Context, a Args) (string, error) {
		host, user, port := a.String("host"), a.String("user"), a.Int("port")
		res := deps.Prober.Identify(ctx, host, port, 0)

		var b strings.Builder
		fmt.Fprintf(&b, "SSH connection analysis\n\nTarget: %s@%s:%d\n", user, host, port)
		b.WriteString(formatProbe(res))
		b.WriteString("\n")
		b.WriteString(synth.ConnectionGuide(host, user, port))
		return b.String(), nil
	}
}

func securityAuditHandler(deps Deps) Handler {
	return func(_ context.Context, a Args) (string, error) {
		target := enumArg[synth.AuditTarget](a, "target_type")
		dir := audit.ExpandHome(deps.SSHDir)

		var b strings.Builder
		b.WriteString(synth.AuditReport(target))

		switch target {
		case synth.AuditClient:
			fmt.Fprintf(&b, "\nLocal permissions (%s):\n", dir)
			b.WriteString(audit.FormatChecks(audit.Audit(dir)))
			b.WriteString("\n")
		case synth.AuditKeys:
			keys := audit.Inventory(dir, audit.DefaultKeyNames)
			fmt.Fprintf(&b, "\nLocal keys (%s):\n", dir)
			if len(keys) == 0 {
				b.WriteString("No keys found\n")
				break
			}
			b.WriteString(audit.FormatInventory(keys))
			b.WriteString("\n")
			if checks := audit.KeySet(dir, audit.DefaultKeyNames); len(checks) > 0 {
				b.WriteString(audit.FormatChecks(checks))
				b.WriteString("\n")
			}
		}
		return b.String(), nil
	}
}

func createTunnelHandler(_ context.Context, a Args) (string, error) {
	spec := synth.TunnelSpec{
		Kind:       enumArg[synth.TunnelKind](a, "tunnel_type"),
		LocalPort:  a.Int("local_port"),
		RemoteHost: a.String("remote_host"),
		RemotePort: a.Int("remote_port"),
		Server:     a.String("ssh_server"),
		User:       a.String("user"),
	}
	return synth.TunnelGuide(spec), nil
}

func checkConnectionHandler(deps Deps) Handler {
	return func(ctx context.Context, a Args) (string, error) {
		timeout := time.Duration(a.Int("timeout")) * time.Second
		res := deps.Prober.Probe(ctx, a.String("host"), a.Int("port"), timeout)
		if res.Reachable {
			return fmt.Sprintf("SSH port %s is open (connected in %v)", res.Address(), res.Latency.Round(time.Millisecond)), nil
		}
		return fmt.Sprintf("SSH port %s is not reachable: %s", res.Address(), res.ErrorDetail), nil
	}
}

func portScanHandler(deps Deps) Handler {
	return func(ctx context.Context, a Args) (string, error) {
		host, start, end := a.String("host"), a.Int("start_port"), a.Int("end_port")
		perPort := time.Duration(a.Int("timeout_ms")) * time.Millisecond

		open, err := deps.Prober.Scan(ctx, host, start, end, perPort)
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", host, err)
		}

		if len(open) == 0 {
			return fmt.Sprintf("No open ports on %s in range %d-%d", host, start, end), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Open ports on %s (%d-%d):\n", host, start, end)
		for _, r := range open {
			fmt.Fprintf(&b, "- %d\n", r.Port)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}

func listKeysHandler(deps Deps) Handler {
	return func(_ context.Context, _ Args) (string, error) {
		dir := audit.ExpandHome(deps.SSHDir)
		keys := audit.Inventory(dir, audit.DefaultKeyNames)
		if len(keys) == 0 {
			return fmt.Sprintf("No SSH keys found in %s", dir), nil
		}
		return fmt.Sprintf("SSH keys in %s:\n%s", dir, audit.FormatInventory(keys)), nil
	}
}

func generateConfigHandler(_ context.Context, a Args) (string, error) {
	entry := synth.HostEntry(synth.HostSpec{
		Alias:        a.String("host"),
		HostName:     a.String("hostname"),
		User:         a.String("user"),
		Port:         a.Int("port"),
		IdentityFile: a.String("key_file"),
	})

	var b strings.Builder
	b.WriteString("Add this entry to ~/.ssh/config:\n\n")
	fmt.Fprintf(&b, "```\n%s```\n\n", entry)
	fmt.Fprintf(&b, "Then connect with:\n```bash\nssh %s\n```\n", a.String("host"))
	return b.String(), nil
}

func formatProbe(res probe.Result) string {
	if !res.Reachable {
		return fmt.Sprintf("Reachable: no (%s)\n", res.ErrorDetail)
	}
	out := fmt.Sprintf("Reachable: yes (%v)\n", res.Latency.Round(time.Millisecond))
	if res.Banner != "" {
		out += fmt.Sprintf("Server banner: %s\n", res.Banner)
	}
	return out
}
