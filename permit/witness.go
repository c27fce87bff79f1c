package permit

import (
	"fmt"
	"strings"
)

// Witness is caller-supplied data cryptographically bound into the signed
// scope. The framework checks only that the schema fragment is syntactically
// well-formed; the witness's semantic meaning belongs to the caller.
type Witness struct {
	Value  [32]byte
	Schema string
}

// ValidateWitnessSchema checks the structural shape of a witness schema
// fragment: "TypeName(type1 name1,type2 name2,...)". Field types may carry
// an array suffix ("uint256[] ids"). An empty parameter list is allowed.
func ValidateWitnessSchema(schema string) error {
	open := strings.IndexByte(schema, '(')
	if open <= 0 {
		return fmt.Errorf("%w: missing type name or parameter list", ErrInvalidWitnessSchema)
	}
	if !strings.HasSuffix(schema, ")") {
		return fmt.Errorf("%w: unterminated parameter list", ErrInvalidWitnessSchema)
	}
	name := schema[:open]
	if !isIdent(name) {
		return fmt.Errorf("%w: invalid type name %q", ErrInvalidWitnessSchema, name)
	}
	params := schema[open+1 : len(schema)-1]
	if strings.ContainsAny(params, "()") {
		return fmt.Errorf("%w: nested parentheses", ErrInvalidWitnessSchema)
	}
	if params == "" {
		return nil
	}
	for _, param := range strings.Split(params, ",") {
		typ, fieldName, ok := strings.Cut(param, " ")
		if !ok {
			return fmt.Errorf("%w: parameter %q missing field name", ErrInvalidWitnessSchema, param)
		}
		typ = strings.TrimSuffix(typ, "[]")
		if !isIdent(typ) {
			return fmt.Errorf("%w: invalid field type in %q", ErrInvalidWitnessSchema, param)
		}
		if !isIdent(fieldName) {
			return fmt.Errorf("%w: invalid field name in %q", ErrInvalidWitnessSchema, param)
		}
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
