package permit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Receipt is the journaled record of one applied submission. Field order is
// fixed by the struct and all uint64s are decimal strings, so the encoded
// bytes are deterministic and the derived CID is stable across encoders.
type Receipt struct {
	Version   string          `json:"version"`
	Context   string          `json:"context"`
	Owner     string          `json:"owner"`
	Salt      string          `json:"salt"`
	Deadline  string          `json:"deadline"`
	Timestamp string          `json:"timestamp"`
	Ops       []ReceiptOp     `json:"ops"`
	Signature string          `json:"signature,omitempty"`
	Root      string          `json:"root,omitempty"`
	Witness   *ReceiptWitness `json:"witness,omitempty"`
}

type ReceiptOp struct {
	ModeOrExpiration string `json:"modeOrExpiration"`
	Token            string `json:"token"`
	TokenID          string `json:"tokenId,omitempty"`
	Account          string `json:"account"`
	AmountDelta      string `json:"amountDelta"`
}

type ReceiptWitness struct {
	Value  string `json:"value"`
	Schema string `json:"schema"`
}

const receiptVersion = "xdao-permit-receipt/1"

func u64s(v uint64) string { return strconv.FormatUint(v, 10) }

// NewReceipt builds the receipt for a submission applied on context.
func NewReceipt(context string, sub Submission) Receipt {
	r := Receipt{
		Version:   receiptVersion,
		Context:   context,
		Owner:     sub.Owner,
		Salt:      sub.Salt.String(),
		Deadline:  u64s(sub.Deadline),
		Timestamp: u64s(sub.Timestamp),
		Ops:       make([]ReceiptOp, 0, len(sub.Ops)),
		Signature: sub.Signature,
	}
	if sub.UnhingedRoot != nil {
		r.Root = hex.EncodeToString(sub.UnhingedRoot[:])
	}
	if sub.Witness != nil {
		r.Witness = &ReceiptWitness{
			Value:  hex.EncodeToString(sub.Witness.Value[:]),
			Schema: sub.Witness.Schema,
		}
	}
	for _, op := range sub.Ops {
		ro := ReceiptOp{
			ModeOrExpiration: u64s(op.ModeOrExpiration),
			Token:            op.Token,
			Account:          op.Account,
			AmountDelta:      u64s(op.AmountDelta),
		}
		if op.TokenID != nil {
			ro.TokenID = hex.EncodeToString(op.TokenID[:])
		}
		r.Ops = append(r.Ops, ro)
	}
	return r
}

// Encode returns the canonical receipt bytes.
func (r Receipt) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("permit: encode receipt: %w", err)
	}
	return data, nil
}

// DecodeReceipt parses canonical receipt bytes.
func DecodeReceipt(data []byte) (Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return Receipt{}, fmt.Errorf("permit: decode receipt: %w", err)
	}
	if r.Version != receiptVersion {
		return Receipt{}, fmt.Errorf("permit: unsupported receipt version %q", r.Version)
	}
	return r, nil
}
