package synth

import (
	"strings"
)

const clientPolicy = `Client configuration

Recommended checks:

1. Key algorithms:
   - Use Ed25519, or RSA with at least 2048 bits
   - Avoid DSA and ECDSA on weak curves

2. ~/.ssh/config:
` + "```" + `
Host *
    PubkeyAuthentication yes
    PasswordAuthentication no
    HostKeyAlgorithms ssh-ed25519,rsa-sha2-512,rsa-sha2-256
    KexAlgorithms curve25519-sha256@libssh.org,diffie-hellman-group16-sha512
    Ciphers chacha20-poly1305@openssh.com,aes256-gcm@openssh.com
    MACs hmac-sha2-256-etm@openssh.com,hmac-sha2-512-etm@openssh.com
` + "```" + `

3. File permissions:
   - ~/.ssh/: 700
   - ~/.ssh/config: 600
   - Private keys: 600
   - Public keys: 644
`

const serverPolicy = `Server configuration

Recommended settings (/etc/ssh/sshd_config):

` + "```" + `
# Port
Port 22  # consider a non-standard port

# Authentication
PermitRootLogin no
PubkeyAuthentication yes
PasswordAuthentication no
PermitEmptyPasswords no
KbdInteractiveAuthentication no

# Algorithms
HostKeyAlgorithms ssh-ed25519,rsa-sha2-512,rsa-sha2-256
KexAlgorithms curve25519-sha256@libssh.org,diffie-hellman-group16-sha512
Ciphers chacha20-poly1305@openssh.com,aes256-gcm@openssh.com
MACs hmac-sha2-256-etm@openssh.com,hmac-sha2-512-etm@openssh.com

# Limits and timeouts
MaxAuthTries 3
MaxSessions 2
ClientAliveInterval 300
ClientAliveCountMax 2
` + "```" + `
`

const keysPolicy = `Key audit

1. Recommended algorithms, in order of preference:
   - Ed25519
   - RSA 4096 bits
   - RSA 2048 bits (minimum acceptable)

2. Algorithms to avoid:
   - DSA
   - RSA below 2048 bits
   - ECDSA on weak curves

3. Good practice:
   - Protect private keys with a strong passphrase
   - Rotate keys regularly
   - One key per service or purpose
   - Remove public keys of inactive accounts

4. Verification commands:
` + "```bash" + `
# Keys loaded in ssh-agent
ssh-add -l

# Type and size of a key
ssh-keygen -l -f ~/.ssh/id_ed25519.pub

# Every key in the directory
for key in ~/.ssh/*.pub; do echo "$key:"; ssh-keygen -l -f "$key"; done
` + "```" + `
`

const securityAlerts = `Security alerts:
- Review authentication logs regularly
- Use fail2ban or similar against brute force attempts
- Consider two-factor authentication
- Keep the SSH software up to date
`

var policies = map[AuditTarget]string{
	AuditClient: clientPolicy,
	AuditServer: serverPolicy,
	AuditKeys:   keysPolicy,
}

// Policy returns the constant policy document for target.
func Policy(target AuditTarget) string {
	if doc, ok := policies[target]; ok {
		return doc
	}
	return policies[AuditClient]
}

// AuditReport composes the policy document for target with the shared
// security alerts footer.
func AuditReport(target AuditTarget) string {
	var b strings.Builder
	b.WriteString("SSH security audit - ")
	b.WriteString(strings.ToUpper(string(target)))
	b.WriteString("\n\n")
	b.WriteString(Policy(target))
	b.WriteString("\n")
	b.WriteString(securityAlerts)
	return b.String()
}
