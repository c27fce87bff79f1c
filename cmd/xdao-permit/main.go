package main

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"xdao.co/permit/grpcpermit"
	"xdao.co/permit/keys"
	"xdao.co/permit/model"
	"xdao.co/permit/permit"
	"xdao.co/permit/unhinged"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "root":
		return cmdRoot(args[1:], out, errOut)
	case "submit":
		return cmdSubmit(args[1:], out, errOut)
	case "allowance":
		return cmdAllowance(args[1:], out, errOut)
	case "is-claimed":
		return cmdIsClaimed(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-permit: permit signing and submission CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-permit key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-permit key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-permit key list")
	fmt.Fprintln(w, "  xdao-permit key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  xdao-permit sign --context <id> --salt-hex <64hex> --deadline <n> [--timestamp <n>] --op <spec> [--op ...] (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [--root-hex <64hex> --proof-file <json>] [--witness-value <64hex> --witness-schema <s>]")
	fmt.Fprintln(w, "  xdao-permit digest <request.json>")
	fmt.Fprintln(w, "  xdao-permit root [--proof <index>] <leaves.txt>")
	fmt.Fprintln(w, "  xdao-permit submit [--server <addr>] <request.json>")
	fmt.Fprintln(w, "  xdao-permit allowance [--server <addr>] --owner <key> --token <t> [--token-id <64hex>] --spender <s>")
	fmt.Fprintln(w, "  xdao-permit is-claimed [--server <addr>] --owner <key> --salt-hex <64hex>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --op is modeOrExpiration:token:account:amountDelta[:tokenIdHex]")
	fmt.Fprintln(w, "    (mode 0 transfer, 1 decrease, 2 lock, 3 unlock, >3 increase until that expiration)")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys live under ~/.xdao/permit/keys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - sign writes the submit request JSON to stdout")
	fmt.Fprintln(w, "  - root reads one 64-hex leaf per line and prints the unhinged root")
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-permit key: minimal local key management (KMS-lite)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-permit key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-permit key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-permit key list")
	fmt.Fprintln(w, "  xdao-permit key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.xdao/permit/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	signerKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. spending, operations)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, signerKey)
	return 0
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var contextID, saltHex, rootHex, proofFile string
	var deadline, timestamp uint64
	var seedHex, signerName, signerRole, keyFile string
	var witnessValue, witnessSchema string
	var ops stringList

	fs.StringVar(&contextID, "context", "", "Execution context identifier")
	fs.StringVar(&saltHex, "salt-hex", "", "Submission salt as 64 hex chars")
	fs.Uint64Var(&deadline, "deadline", 0, "Last unix second the submission may execute")
	fs.Uint64Var(&timestamp, "timestamp", 0, "Logical signing time (default: now)")
	fs.Var(&ops, "op", "Operation modeOrExpiration:token:account:amountDelta[:tokenIdHex] (repeatable)")
	fs.StringVar(&seedHex, "seed-hex", "", "Ed25519 seed as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Key name from the local keystore")
	fs.StringVar(&signerRole, "signer-role", "", "Optional role of --signer")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file")
	fs.StringVar(&rootHex, "root-hex", "", "Unhinged root as 64 hex chars (cross-context submissions)")
	fs.StringVar(&proofFile, "proof-file", "", "JSON proof connecting this context's leaf to --root-hex")
	fs.StringVar(&witnessValue, "witness-value", "", "Witness value as 64 hex chars")
	fs.StringVar(&witnessSchema, "witness-schema", "", "Witness schema fragment, e.g. Witness(bytes32 witness)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if contextID == "" {
		fmt.Fprintln(errOut, "missing --context")
		return 2
	}
	if saltHex == "" {
		fmt.Fprintln(errOut, "missing --salt-hex")
		return 2
	}
	if deadline == 0 {
		fmt.Fprintln(errOut, "missing --deadline")
		return 2
	}
	if len(ops) == 0 {
		fmt.Fprintln(errOut, "missing --op")
		return 2
	}
	if timestamp == 0 {
		timestamp = uint64(time.Now().Unix())
	}

	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signerName, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 2
	}
	priv := ed25519.NewKeyFromSeed(seed)

	req := model.SubmitRequest{
		Owner:     keys.SignerKeyFromSeed(seed),
		Salt:      saltHex,
		Deadline:  strconv.FormatUint(deadline, 10),
		Timestamp: strconv.FormatUint(timestamp, 10),
		Context:   contextID,
	}
	for i, spec := range ops {
		op, err := parseOpSpec(spec)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --op[%d]: %v\n", i, err)
			return 2
		}
		req.Ops = append(req.Ops, op)
	}
	if rootHex != "" {
		req.UnhingedRoot = rootHex
	}
	if proofFile != "" {
		data, err := os.ReadFile(proofFile)
		if err != nil {
			fmt.Fprintf(errOut, "read --proof-file: %v\n", err)
			return 2
		}
		var proof model.Proof
		if err := json.Unmarshal(data, &proof); err != nil {
			fmt.Fprintf(errOut, "parse --proof-file: %v\n", err)
			return 2
		}
		req.Proof = &proof
	}
	if witnessSchema != "" || witnessValue != "" {
		if err := permit.ValidateWitnessSchema(witnessSchema); err != nil {
			fmt.Fprintf(errOut, "invalid --witness-schema: %v\n", err)
			return 2
		}
		req.Witness = &model.Witness{Value: witnessValue, Schema: witnessSchema}
	}

	sub, err := model.ToSubmission(req)
	if err != nil {
		fmt.Fprintf(errOut, "invalid submission: %v\n", err)
		return 2
	}
	req.Signature = keys.SignEd25519SHA256(permit.SigningBytes(sub), priv)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(req); err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	return 0
}

// parseOpSpec parses modeOrExpiration:token:account:amountDelta[:tokenIdHex].
func parseOpSpec(spec string) (model.Operation, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 && len(parts) != 5 {
		return model.Operation{}, fmt.Errorf("want 4 or 5 colon-separated fields, got %d", len(parts))
	}
	op := model.Operation{
		ModeOrExpiration: parts[0],
		Token:            parts[1],
		Account:          parts[2],
		AmountDelta:      parts[3],
	}
	if len(parts) == 5 {
		op.TokenID = parts[4]
	}
	return op, nil
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-permit digest <request.json>")
		return 2
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	var req model.SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 2
	}
	sub, err := model.ToSubmission(req)
	if err != nil {
		fmt.Fprintf(errOut, "invalid submission: %v\n", err)
		return 2
	}
	digest := sha256.Sum256(permit.SigningBytes(sub))
	fmt.Fprintf(out, "%s\n", hex.EncodeToString(digest[:]))
	return 0
}

func cmdRoot(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("root", flag.ContinueOnError)
	fs.SetOutput(errOut)

	proofIndex := fs.Int("proof", -1, "Emit the inclusion proof JSON for this leaf index instead of the root")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-permit root [--proof <index>] <leaves.txt>")
		return 2
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open: %v\n", err)
		return 1
	}
	defer f.Close()

	var leaves []unhinged.Hash
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		b, err := hex.DecodeString(line)
		if err != nil || len(b) != 32 {
			fmt.Fprintf(errOut, "leaf %d: want 64 hex chars\n", len(leaves))
			return 2
		}
		var h unhinged.Hash
		copy(h[:], b)
		leaves = append(leaves, h)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}

	if *proofIndex >= 0 {
		proof, err := unhinged.ProofAt(leaves, *proofIndex)
		if err != nil {
			fmt.Fprintf(errOut, "proof: %v\n", err)
			return 2
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(model.FromProof(proof)); err != nil {
			fmt.Fprintf(errOut, "encode: %v\n", err)
			return 1
		}
		return 0
	}

	root, err := unhinged.Root(leaves)
	if err != nil {
		fmt.Fprintf(errOut, "root: %v\n", err)
		return 2
	}
	fmt.Fprintf(out, "%s\n", root)
	return 0
}

func cmdSubmit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(errOut)

	server := fs.String("server", "127.0.0.1:7787", "Permit daemon address")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-permit submit [--server <addr>] <request.json>")
		return 2
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	var req model.SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 2
	}

	client, err := grpcpermit.Dial(*server, grpcpermit.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", *server, err)
		return 1
	}
	defer client.Close()
	client.Timeout = 10 * time.Second

	receipt, err := client.Submit(req)
	if err != nil {
		fmt.Fprintf(errOut, "submit: %v\n", err)
		return 1
	}
	if receipt != "" {
		fmt.Fprintf(out, "%s\n", receipt)
	}
	return 0
}

func cmdAllowance(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("allowance", flag.ContinueOnError)
	fs.SetOutput(errOut)

	server := fs.String("server", "127.0.0.1:7787", "Permit daemon address")
	owner := fs.String("owner", "", "Owner signer key")
	token := fs.String("token", "", "Token identifier")
	tokenID := fs.String("token-id", "", "Optional asset id as 64 hex chars")
	spender := fs.String("spender", "", "Spender account")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *owner == "" || *token == "" || *spender == "" {
		fmt.Fprintln(errOut, "missing --owner, --token, or --spender")
		return 2
	}

	client, err := grpcpermit.Dial(*server, grpcpermit.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", *server, err)
		return 1
	}
	defer client.Close()
	client.Timeout = 10 * time.Second

	view, err := client.Allowance(model.AllowanceQuery{
		Owner: *owner, Token: *token, TokenID: *tokenID, Spender: *spender,
	})
	if err != nil {
		fmt.Fprintf(errOut, "allowance: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	return 0
}

func cmdIsClaimed(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("is-claimed", flag.ContinueOnError)
	fs.SetOutput(errOut)

	server := fs.String("server", "127.0.0.1:7787", "Permit daemon address")
	owner := fs.String("owner", "", "Owner signer key")
	saltHex := fs.String("salt-hex", "", "Salt as 64 hex chars")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *owner == "" || *saltHex == "" {
		fmt.Fprintln(errOut, "missing --owner or --salt-hex")
		return 2
	}

	client, err := grpcpermit.Dial(*server, grpcpermit.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", *server, err)
		return 1
	}
	defer client.Close()
	client.Timeout = 10 * time.Second

	claimed, err := client.IsClaimed(model.SaltQuery{Owner: *owner, Salt: *saltHex})
	if err != nil {
		fmt.Fprintf(errOut, "is-claimed: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%t\n", claimed)
	return 0
}
