package grpcpermit

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/permit/model"
)

// Client submits permits and queries state over the Permit gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client PermitClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewPermitClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Submit sends one signed submission and returns the receipt CID string,
// empty when the server journals nothing.
func (c *Client) Submit(req model.SubmitRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Submit(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return "", mapRPC(err)
	}
	return reply.GetValue(), nil
}

// Allowance fetches the current record for one (owner, token/id, spender).
func (c *Client) Allowance(q model.AllowanceQuery) (model.AllowanceView, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return model.AllowanceView{}, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Allowance(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return model.AllowanceView{}, mapRPC(err)
	}
	var view model.AllowanceView
	if err := json.Unmarshal(reply.GetValue(), &view); err != nil {
		return model.AllowanceView{}, model.NewError(model.ErrInternal, "malformed allowance view from server")
	}
	return view, nil
}

// IsClaimed reports whether the owner's salt is already consumed.
func (c *Client) IsClaimed(q model.SaltQuery) (bool, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return false, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.IsClaimed(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
