package model

import (
	"encoding/hex"
	"strconv"

	"xdao.co/permit/allowance"
	"xdao.co/permit/nonce"
	"xdao.co/permit/permit"
	"xdao.co/permit/tokenkey"
	"xdao.co/permit/unhinged"
)

func parseUint(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewError(ErrInvalidRequest, "invalid "+field+": "+s)
	}
	return v, nil
}

func parseHash32(field, s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, NewError(ErrInvalidRequest, "invalid "+field+": want 32 hex-encoded bytes")
	}
	copy(out[:], b)
	return out, nil
}

// ToOperation converts one boundary operation to its domain form.
func ToOperation(op Operation) (allowance.Operation, error) {
	mode, err := parseUint("modeOrExpiration", op.ModeOrExpiration)
	if err != nil {
		return allowance.Operation{}, err
	}
	amount, err := parseUint("amountDelta", op.AmountDelta)
	if err != nil {
		return allowance.Operation{}, err
	}
	out := allowance.Operation{
		ModeOrExpiration: mode,
		Token:            op.Token,
		Account:          op.Account,
		AmountDelta:      amount,
	}
	if op.TokenID != "" {
		id, err := parseHash32("tokenId", op.TokenID)
		if err != nil {
			return allowance.Operation{}, err
		}
		out.TokenID = &id
	}
	return out, nil
}

// FromOperation converts a domain operation to its boundary form.
func FromOperation(op allowance.Operation) Operation {
	out := Operation{
		ModeOrExpiration: strconv.FormatUint(op.ModeOrExpiration, 10),
		Token:            op.Token,
		Account:          op.Account,
		AmountDelta:      strconv.FormatUint(op.AmountDelta, 10),
	}
	if op.TokenID != nil {
		out.TokenID = hex.EncodeToString(op.TokenID[:])
	}
	return out
}

// ToSubmission converts a boundary request to the domain submission the
// orchestrator executes.
func ToSubmission(req SubmitRequest) (permit.Submission, error) {
	salt, err := nonce.ParseSalt(req.Salt)
	if err != nil {
		return permit.Submission{}, NewError(ErrInvalidRequest, "invalid salt: "+err.Error())
	}
	deadline, err := parseUint("deadline", req.Deadline)
	if err != nil {
		return permit.Submission{}, err
	}
	timestamp, err := parseUint("timestamp", req.Timestamp)
	if err != nil {
		return permit.Submission{}, err
	}
	sub := permit.Submission{
		Owner:     req.Owner,
		Salt:      salt,
		Deadline:  deadline,
		Timestamp: timestamp,
		Context:   req.Context,
		Signature: req.Signature,
		Ops:       make([]allowance.Operation, 0, len(req.Ops)),
	}
	for _, op := range req.Ops {
		converted, err := ToOperation(op)
		if err != nil {
			return permit.Submission{}, err
		}
		sub.Ops = append(sub.Ops, converted)
	}
	if req.UnhingedRoot != "" {
		root, err := parseHash32("unhingedRoot", req.UnhingedRoot)
		if err != nil {
			return permit.Submission{}, err
		}
		h := unhinged.Hash(root)
		sub.UnhingedRoot = &h
	}
	if req.Proof != nil {
		proof, err := ToProof(*req.Proof)
		if err != nil {
			return permit.Submission{}, err
		}
		sub.Proof = &proof
	}
	if req.Witness != nil {
		value, err := parseHash32("witness value", req.Witness.Value)
		if err != nil {
			return permit.Submission{}, err
		}
		sub.Witness = &permit.Witness{Value: value, Schema: req.Witness.Schema}
	}
	return sub, nil
}

// FromSubmission converts a domain submission to the boundary request form,
// for clients that sign locally and submit over the wire.
func FromSubmission(sub permit.Submission) SubmitRequest {
	req := SubmitRequest{
		Owner:     sub.Owner,
		Salt:      sub.Salt.String(),
		Deadline:  strconv.FormatUint(sub.Deadline, 10),
		Timestamp: strconv.FormatUint(sub.Timestamp, 10),
		Context:   sub.Context,
		Signature: sub.Signature,
		Ops:       make([]Operation, 0, len(sub.Ops)),
	}
	for _, op := range sub.Ops {
		req.Ops = append(req.Ops, FromOperation(op))
	}
	if sub.UnhingedRoot != nil {
		req.UnhingedRoot = sub.UnhingedRoot.String()
	}
	if sub.Proof != nil {
		p := FromProof(*sub.Proof)
		req.Proof = &p
	}
	if sub.Witness != nil {
		req.Witness = &Witness{
			Value:  hex.EncodeToString(sub.Witness.Value[:]),
			Schema: sub.Witness.Schema,
		}
	}
	return req
}

// ToProof converts a boundary proof to its domain form.
func ToProof(p Proof) (unhinged.Proof, error) {
	out := unhinged.Proof{
		Nodes:        make([]unhinged.Hash, 0, len(p.Nodes)),
		SubtreeCount: p.SubtreeCount,
		HasPreHash:   p.HasPreHash,
	}
	for i, n := range p.Nodes {
		h, err := parseHash32("proof node "+strconv.Itoa(i), n)
		if err != nil {
			return unhinged.Proof{}, err
		}
		out.Nodes = append(out.Nodes, h)
	}
	return out, nil
}

// FromProof converts a domain proof to its boundary form.
func FromProof(p unhinged.Proof) Proof {
	out := Proof{
		Nodes:        make([]string, 0, len(p.Nodes)),
		SubtreeCount: p.SubtreeCount,
		HasPreHash:   p.HasPreHash,
	}
	for _, n := range p.Nodes {
		out.Nodes = append(out.Nodes, n.String())
	}
	return out
}

// ToTokenID parses an optional hex asset id.
func ToTokenID(s string) (*tokenkey.ID, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := parseHash32("tokenId", s)
	if err != nil {
		return nil, err
	}
	id := tokenkey.ID(raw)
	return &id, nil
}

// FromAllowance converts a domain record to its boundary form.
func FromAllowance(a allowance.Allowance) AllowanceView {
	return AllowanceView{
		Amount:     strconv.FormatUint(a.Amount, 10),
		Expiration: strconv.FormatUint(a.Expiration, 10),
		Timestamp:  strconv.FormatUint(a.Timestamp, 10),
		Locked:     a.Locked(),
	}
}
