package permit

import (
	"errors"
	"testing"
)

func TestValidateWitnessSchema(t *testing.T) {
	valid := []string{
		"Witness(bytes32 witness)",
		"Order(address maker,uint256 amount)",
		"Batch(uint256[] ids,address recipient)",
		"Empty()",
	}
	for _, s := range valid {
		if err := ValidateWitnessSchema(s); err != nil {
			t.Errorf("ValidateWitnessSchema(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{
		"",
		"NoParens",
		"(uint256 x)",
		"Unterminated(uint256 x",
		"Nested(Inner(uint256 x) y)",
		"Bad Name(uint256 x)",
		"W(uint256)",
		"W(uint256 1x)",
		"W(uint-256 x)",
		"1W(uint256 x)",
	}
	for _, s := range invalid {
		err := ValidateWitnessSchema(s)
		if !errors.Is(err, ErrInvalidWitnessSchema) {
			t.Errorf("ValidateWitnessSchema(%q) = %v, want ErrInvalidWitnessSchema", s, err)
		}
	}
}
