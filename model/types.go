package model

// Operation is the boundary form of one permission or transfer operation.
type Operation struct {
	// ModeOrExpiration is the raw mode-or-expiration value: "0" transfer,
	// "1" decrease, "2" lock, "3" unlock, anything larger is an increase
	// whose value is the new expiration.
	ModeOrExpiration string `json:"modeOrExpiration"`
	Token            string `json:"token"`
	// TokenID, when present, is the hex-encoded 32-byte asset id within a
	// multi-token contract. Absent means the fungible token itself, or the
	// collection-wide record.
	TokenID     string `json:"tokenId,omitempty"`
	Account     string `json:"account"`
	AmountDelta string `json:"amountDelta"`
}

// Proof is the boundary form of an unhinged inclusion proof.
type Proof struct {
	Nodes        []string `json:"nodes"`
	SubtreeCount int      `json:"subtreeCount"`
	HasPreHash   bool     `json:"hasPreHash"`
}

// Witness is the boundary form of caller data bound into the signature.
type Witness struct {
	Value  string `json:"value"`
	Schema string `json:"schema"`
}

// SubmitRequest is one signed submission as it crosses the wire.
type SubmitRequest struct {
	Owner        string      `json:"owner"`
	Salt         string      `json:"salt"`
	Deadline     string      `json:"deadline"`
	Timestamp    string      `json:"timestamp"`
	Context      string      `json:"context"`
	Ops          []Operation `json:"ops"`
	Signature    string      `json:"signature"`
	UnhingedRoot string      `json:"unhingedRoot,omitempty"`
	Proof        *Proof      `json:"proof,omitempty"`
	Witness      *Witness    `json:"witness,omitempty"`
}

// SubmitResponse reports the journaled receipt of an applied submission.
type SubmitResponse struct {
	ReceiptCID string `json:"receiptCid,omitempty"`
}

// AllowanceQuery addresses one allowance record.
type AllowanceQuery struct {
	Owner   string `json:"owner"`
	Token   string `json:"token"`
	TokenID string `json:"tokenId,omitempty"`
	Spender string `json:"spender"`
}

// AllowanceView is the boundary form of one allowance record.
type AllowanceView struct {
	Amount     string `json:"amount"`
	Expiration string `json:"expiration"`
	Timestamp  string `json:"timestamp"`
	Locked     bool   `json:"locked"`
}

// SaltQuery addresses one (owner, salt) pair in the nonce space.
type SaltQuery struct {
	Owner string `json:"owner"`
	Salt  string `json:"salt"`
}
