package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// ErrVerify is returned when a well-formed signature does not verify against
// the signer key and message.
var ErrVerify = errors.New("keys: signature did not verify")

// ParseSignerKey splits a signer-key string into its algorithm tag and raw
// public key bytes. Supported encodings:
//   - ed25519:<base64>
//   - dilithium3:<base64>
func ParseSignerKey(signer string) (alg string, pub []byte, err error) {
	alg, enc, ok := strings.Cut(signer, ":")
	if !ok {
		return "", nil, errors.New("keys: invalid signer-key encoding")
	}
	pub, err = base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", nil, fmt.Errorf("keys: invalid signer-key base64: %w", err)
	}
	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, errors.New("keys: invalid ed25519 public key length")
		}
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return "", nil, fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("keys: unsupported signer-key algorithm %q", alg)
	}
	return alg, pub, nil
}

// VerifyDetached checks a detached base64 signature over sha256(message)
// against the signer-key string. It acts as the signature oracle for the
// orchestrator: the recovered signer either is the given key or the call
// fails.
func VerifyDetached(signer string, message []byte, sigB64 string) error {
	alg, pub, err := ParseSignerKey(signer)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("keys: invalid signature base64: %w", err)
	}
	digest := sha256.Sum256(message)

	switch alg {
	case "ed25519":
		if len(sig) != ed25519.SignatureSize {
			return errors.New("keys: invalid ed25519 signature length")
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
			return ErrVerify
		}
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
		if len(sig) != mode3.SignatureSize {
			return errors.New("keys: invalid dilithium3 signature length")
		}
		if !mode3.Verify(&pk, digest[:], sig) {
			return ErrVerify
		}
	}
	return nil
}
