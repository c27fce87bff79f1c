package permit

import "errors"

// Rejection sentinels for the orchestrator's own checks. Failures raised by
// the stores keep their package sentinels (nonce.ErrAlreadyClaimed,
// allowance.ErrAllowanceLocked, unhinged.ErrProofMismatch, ...); all of them
// are wrapped in *Error, so errors.Is works against the sentinel and
// IsKind/RuleID against the taxonomy.
var (
	ErrEmptyBatch           = errors.New("permit: empty operation batch")
	ErrDeadlineExceeded     = errors.New("permit: deadline exceeded")
	ErrWrongContext         = errors.New("permit: wrong execution context")
	ErrInvalidSignature     = errors.New("permit: invalid signature")
	ErrSignatureExpired     = errors.New("permit: signature expired")
	ErrInvalidWitnessSchema = errors.New("permit: invalid witness schema")
	ErrMissingProof         = errors.New("permit: cross-context submission without proof")
)

// Kind is a stable category for programmatic error handling.
//
// Input rejections fail fast on malformed submissions; Auth rejections fail
// fast before any state is mutated; Business rejections fail the whole
// submission after validation. Callers should branch on Kind/RuleID rather
// than matching error strings.
type Kind string

const (
	KindInput    Kind = "Input"
	KindAuth     Kind = "Auth"
	KindBusiness Kind = "Business"
)

// Error is the orchestrator's structured error type.
//
// RuleID is a stable identifier (e.g. PERMIT-AUTH-003) naming the violated
// rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func reject(kind Kind, ruleID, msg string, cause error) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
