// Package synth renders SSH guidance text and the exact command lines a user
// would run. Everything here is a pure function of its inputs: nothing is
// executed and nothing on disk is touched.
package synth

// KeyType is an ssh-keygen key algorithm.
type KeyType string

const (
	KeyEd25519 KeyType = "ed25519"
	KeyRSA     KeyType = "rsa"
	KeyECDSA   KeyType = "ecdsa"
)

// KeyTypes lists the accepted key algorithms in schema order.
func KeyTypes() []string {
	return []string{string(KeyEd25519), string(KeyRSA), string(KeyECDSA)}
}

// TunnelKind selects the port-forwarding command skeleton.
type TunnelKind string

const (
	TunnelLocal   TunnelKind = "local"
	TunnelRemote  TunnelKind = "remote"
	TunnelDynamic TunnelKind = "dynamic"
)

// TunnelKinds lists the accepted tunnel kinds in schema order.
func TunnelKinds() []string {
	return []string{string(TunnelLocal), string(TunnelRemote), string(TunnelDynamic)}
}

// AuditTarget selects one of the fixed security policy documents.
type AuditTarget string

const (
	AuditClient AuditTarget = "client"
	AuditServer AuditTarget = "server"
	AuditKeys   AuditTarget = "keys"
)

// AuditTargets lists the accepted audit targets in schema order.
func AuditTargets() []string {
	return []string{string(AuditClient), string(AuditServer), string(AuditKeys)}
}
