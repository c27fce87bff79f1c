// Package keys provides signer identities and detached signatures for the
// permit framework.
//
// An owner is identified by a signer-key string, "ed25519:<base64>" or
// "dilithium3:<base64>". Signatures are detached and base64-encoded, computed
// over a digest of the canonical permit scope.
//
// The filesystem-backed KeyStore is a local-first convenience for the CLI and
// is not part of the protocol contract.
package keys
