package grpcpermit

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/permit/allowance"
	"xdao.co/permit/journal/memstore"
	"xdao.co/permit/keys"
	"xdao.co/permit/model"
	"xdao.co/permit/nonce"
	"xdao.co/permit/permit"
)

func dialTestServer(t *testing.T, o *permit.Orchestrator) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterPermitServer(srv, &Server{Orchestrator: o})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { cc.Close() })

	return &Client{cc: cc, client: NewPermitClient(cc), Timeout: 2 * time.Second}
}

func TestGRPCPermit_RoundTrip(t *testing.T) {
	seed := bytes.Repeat([]byte{1}, ed25519.SeedSize)
	owner := keys.SignerKeyFromSeed(seed)
	priv := ed25519.NewKeyFromSeed(seed)

	o := permit.New("ctx-a", permit.NewMemLedger(), memstore.New())
	o.Now = func() uint64 { return 1000 }
	client := dialTestServer(t, o)

	var salt nonce.Salt
	salt[0] = 1
	sub := permit.Submission{
		Owner:     owner,
		Salt:      salt,
		Deadline:  2000,
		Timestamp: 500,
		Context:   "ctx-a",
		Ops: []allowance.Operation{
			{ModeOrExpiration: 5000, Token: "tokenA", Account: "spender", AmountDelta: 100},
		},
	}
	sub.Signature = keys.SignEd25519SHA256(permit.SigningBytes(sub), priv)

	receipt, err := client.Submit(model.FromSubmission(sub))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt == "" {
		t.Fatalf("expected a receipt CID")
	}

	view, err := client.Allowance(model.AllowanceQuery{
		Owner: owner, Token: "tokenA", Spender: "spender",
	})
	if err != nil {
		t.Fatalf("Allowance: %v", err)
	}
	if view.Amount != "100" || view.Expiration != "5000" || view.Timestamp != "500" {
		t.Fatalf("view = %+v", view)
	}

	claimed, err := client.IsClaimed(model.SaltQuery{Owner: owner, Salt: salt.String()})
	if err != nil {
		t.Fatalf("IsClaimed: %v", err)
	}
	if !claimed {
		t.Fatalf("salt should be claimed after submit")
	}

	t.Run("replay maps to ALREADY_CLAIMED", func(t *testing.T) {
		_, err := client.Submit(model.FromSubmission(sub))
		var ce *model.CodedError
		if !errors.As(err, &ce) || ce.Code != model.ErrAlreadyClaimed {
			t.Fatalf("err = %v, want ALREADY_CLAIMED", err)
		}
	})

	t.Run("bad signature maps to INVALID_SIGNATURE", func(t *testing.T) {
		bad := sub
		bad.Salt[0] = 2
		bad.Signature = keys.SignEd25519SHA256([]byte("other message"), priv)
		_, err := client.Submit(model.FromSubmission(bad))
		var ce *model.CodedError
		if !errors.As(err, &ce) || ce.Code != model.ErrInvalidSignature {
			t.Fatalf("err = %v, want INVALID_SIGNATURE", err)
		}
	})

	t.Run("malformed request maps to INVALID_REQUEST", func(t *testing.T) {
		_, err := client.Submit(model.SubmitRequest{Salt: "zz"})
		var ce *model.CodedError
		if !errors.As(err, &ce) || ce.Code != model.ErrInvalidRequest {
			t.Fatalf("err = %v, want INVALID_REQUEST", err)
		}
	})
}
