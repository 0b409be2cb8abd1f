package audit

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigSummary is the outcome of inspecting an OpenSSH client config.
type ConfigSummary struct {
	Path    string   `json:"path"`
	Exists  bool     `json:"exists"`
	Content string   `json:"content,omitempty"`
	Hosts   []string `json:"hosts,omitempty"`
	Issues  []string `json:"issues,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// knownKeywords holds the ssh_config(5) keywords in lower case.
var knownKeywords = map[string]bool{
	"host": true, "match": true, "include": true,
	"addkeystoagent": true, "addressfamily": true, "batchmode": true,
	"bindaddress": true, "bindinterface": true, "canonicaldomains": true,
	"canonicalizefallbacklocal": true, "canonicalizehostname": true,
	"canonicalizemaxdots": true, "canonicalizepermittedcnames": true,
	"casignaturealgorithms": true, "certificatefile": true,
	"checkhostip": true, "ciphers": true, "clearallforwardings": true,
	"compression": true, "connectionattempts": true, "connecttimeout": true,
	"controlmaster": true, "controlpath": true, "controlpersist": true,
	"dynamicforward": true, "enableescapecommandline": true,
	"enablesshkeysign": true, "escapechar": true,
	"exitonforwardfailure": true, "fingerprinthash": true,
	"forkafterauthentication": true, "forwardagent": true,
	"forwardx11": true, "forwardx11timeout": true, "forwardx11trusted": true,
	"gatewayports": true, "globalknownhostsfile": true,
	"gssapiauthentication": true, "gssapidelegatecredentials": true,
	"hashknownhosts": true, "hostbasedacceptedalgorithms": true,
	"hostbasedauthentication": true, "hostkeyalgorithms": true,
	"hostkeyalias": true, "hostname": true, "identitiesonly": true,
	"identityagent": true, "identityfile": true, "ignoreunknown": true,
	"ipqos": true, "kbdinteractiveauthentication": true,
	"kbdinteractivedevices": true, "kexalgorithms": true,
	"knownhostscommand": true, "localcommand": true, "localforward": true,
	"loglevel": true, "logverbose": true, "macs": true,
	"nohostauthenticationforlocalhost": true, "numberofpasswordprompts": true,
	"passwordauthentication": true, "permitlocalcommand": true,
	"permitremoteopen": true, "pkcs11provider": true, "port": true,
	"preferredauthentications": true, "protocol": true, "proxycommand": true,
	"proxyjump": true, "proxyusefdpass": true,
	"pubkeyacceptedalgorithms": true, "pubkeyacceptedkeytypes": true,
	"pubkeyauthentication": true, "rekeylimit": true, "remotecommand": true,
	"remoteforward": true, "requesttty": true, "requiredrsasize": true,
	"revokedhostkeys": true, "securitykeyprovider": true, "sendenv": true,
	"serveraliveinterval": true, "serveralivecountmax": true,
	"sessiontype": true, "setenv": true, "stdinnull": true,
	"streamlocalbindmask": true, "streamlocalbindunlink": true,
	"stricthostkeychecking": true, "syslogfacility": true,
	"tcpkeepalive": true, "tag": true, "tunnel": true, "tunneldevice": true,
	"updatehostkeys": true, "user": true, "userknownhostsfile": true,
	"verifyhostkeydns": true, "visualhostkey": true, "xauthlocation": true,
}

// errPrivateKeyContent replaces the content of files holding key material.
const errPrivateKeyContent = "file contains private key material, content not shown"

// InspectConfig reads an ssh_config file, collects its Host patterns and
// reports lines that do not parse as "Keyword value" pairs. Private key
// material is never copied into the summary.
func InspectConfig(path string) ConfigSummary {
	s := ConfigSummary{Path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s
	}
	s.Exists = true
	if err != nil {
		s.Error = err.Error()
		return s
	}
	if LooksLikePrivateKey(data) {
		s.Error = errPrivateKeyContent
		return s
	}
	s.Content = string(data)
	s.Hosts, s.Issues = parseConfig(s.Content)
	return s
}

func parseConfig(content string) (hosts, issues []string) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, value := splitDirective(line)
		if value == "" {
			issues = append(issues, fmt.Sprintf("line %d: missing value: %s", lineNum, line))
			continue
		}

		lower := strings.ToLower(keyword)
		if !knownKeywords[lower] {
			issues = append(issues, fmt.Sprintf("line %d: unknown keyword: %s", lineNum, keyword))
			continue
		}

		switch lower {
		case "host":
			hosts = append(hosts, value)
		case "protocol":
			issues = append(issues, fmt.Sprintf("line %d: Protocol is obsolete and ignored by OpenSSH", lineNum))
		case "passwordauthentication":
			if strings.EqualFold(value, "yes") {
				issues = append(issues, fmt.Sprintf("line %d: PasswordAuthentication yes; prefer keys", lineNum))
			}
		case "stricthostkeychecking":
			if strings.EqualFold(value, "no") {
				issues = append(issues, fmt.Sprintf("line %d: StrictHostKeyChecking no disables host key verification", lineNum))
			}
		}
	}
	return hosts, issues
}

// splitDirective splits "Keyword value" or "Keyword=value".
func splitDirective(line string) (string, string) {
	idx := strings.IndexAny(line, " \t=")
	if idx < 0 {
		return line, ""
	}
	keyword := line[:idx]
	value := strings.TrimSpace(line[idx:])
	value = strings.TrimSpace(strings.TrimPrefix(value, "="))
	return keyword, value
}

// FileEntry is a regular file in the credential directory.
type FileEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mode string `json:"mode"`
}

// ListDirectory lists the regular files in dir sorted by name.
func ListDirectory(dir string) ([]FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []FileEntry
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileEntry{
			Name: e.Name(),
			Size: info.Size(),
			Mode: modeString(info.Mode()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FormatConfigSummary renders a human-readable report of s and of the files
// found in dir.
func FormatConfigSummary(s ConfigSummary, dir string, files []FileEntry, listErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SSH configuration check\n\nFile: %s\n\n", s.Path)

	switch {
	case !s.Exists:
		b.WriteString("Status: not found\n\n")
		b.WriteString("Create the file with:\n")
		fmt.Fprintf(&b, "```bash\ntouch %s\nchmod 600 %s\n```\n", s.Path, s.Path)
	case s.Error != "":
		fmt.Fprintf(&b, "Status: cannot read file: %s\n", s.Error)
	default:
		b.WriteString("Status: found\n\n")
		fmt.Fprintf(&b, "Content:\n```\n%s\n```\n\n", strings.TrimRight(s.Content, "\n"))
		fmt.Fprintf(&b, "Configured hosts: %d\n", len(s.Hosts))
		for _, h := range s.Hosts {
			fmt.Fprintf(&b, "   - Host %s\n", h)
		}
		if len(s.Issues) > 0 {
			fmt.Fprintf(&b, "\nIssues: %d\n", len(s.Issues))
			for _, issue := range s.Issues {
				fmt.Fprintf(&b, "   - %s\n", issue)
			}
		}
	}

	fmt.Fprintf(&b, "\nSSH directory: %s\n", dir)
	if listErr != nil {
		if errors.Is(listErr, fs.ErrNotExist) {
			b.WriteString("Directory does not exist\n")
		} else {
			fmt.Fprintf(&b, "Cannot list directory: %v\n", listErr)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "Files found: %d\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "   - %s (%d bytes, %s)\n", f.Name, f.Size, f.Mode)
	}
	return b.String()
}

// DefaultConfigPath is the client config inside dir.
func DefaultConfigPath(dir string) string {
	return filepath.Join(dir, "config")
}
