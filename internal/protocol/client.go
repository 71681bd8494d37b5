package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxReplyPayload bounds replies read by Client.
const maxReplyPayload = 64 << 20

// Client is a half-duplex OVNT client: one request, then exactly one reply.
// Calls are serialized; a Client is safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	br     *bufio.Reader
	id     uuid.UUID
	broken error
}

// ErrClientBroken is returned by Embed once an earlier call failed mid-exchange.
// The connection is closed by then; create a new Client to continue.
var ErrClientBroken = errors.New("ovnt: client connection broken")

// RemoteError is returned by Embed when the server replied with an error payload.
type RemoteError struct{ Message string }

func (e *RemoteError) Error() string { return "server error: " + e.Message }

// Dial connects to an OVNT server.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, br: bufio.NewReader(conn), id: uuid.New()}
}

// ID returns the sender id used for outgoing frames.
func (c *Client) ID() uuid.UUID { return c.id }

// Embed sends an embed request and waits for the reply. Context deadlines are
// applied to the underlying connection. Any transport, context or addressing
// failure closes the connection; later calls return ErrClientBroken.
func (c *Client) Embed(ctx context.Context, text, model string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientBroken, c.broken)
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
		defer c.conn.SetDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() { _ = c.conn.SetDeadline(time.Now()) })
	defer stop()

	req := NewMessage(c.id, nil, MarshalRequest(EmbedRequest{Text: text, Model: model}))
	if err := WriteMessage(c.conn, req); err != nil {
		return nil, c.fail(c.ctxErr(ctx, err))
	}
	reply, err := ReadMessage(c.br, maxReplyPayload)
	if err != nil {
		return nil, c.fail(c.ctxErr(ctx, err))
	}
	if reply.TargetID == nil || *reply.TargetID != c.id {
		return nil, c.fail(errors.New("ovnt: reply not addressed to this client"))
	}
	if reply.MessageID != req.MessageID {
		return nil, c.fail(fmt.Errorf("ovnt: reply to message %s, want %s", reply.MessageID, req.MessageID))
	}
	resp, remote, err := DecodeReply(reply.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if remote != nil {
		return nil, &RemoteError{Message: remote.Error}
	}
	return resp.Embedding, nil
}

// fail marks the client broken and closes the connection.
func (c *Client) fail(err error) error {
	c.broken = err
	_ = c.conn.Close()
	return err
}

func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	// the connection deadline can fire just before the context timer does
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return errors.Join(context.DeadlineExceeded, err)
	}
	return err
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }
