package events

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/mortar/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketEventName is the socket.io event every build event is emitted as.
const SocketEventName = "mortar:event"

// ErrNotConnected is returned when publishing on a disconnected socket.
var ErrNotConnected = errors.New("socket.io client is not connected")

// SocketOptions configures a SocketPublisher.
type SocketOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// SocketPublisher emits events to a socket.io server.
type SocketPublisher struct {
	client *socket.Socket
}

// DialSocket connects to the socket.io server and waits until the
// connection is established, fails, or ctx is done.
func DialSocket(ctx context.Context, o SocketOptions) (*SocketPublisher, error) {
	logger := ctxlog.FromContext(ctx).With("url", o.URL, "namespace", o.Namespace)
	logger.Debug("Connecting event publisher...")

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q needs a scheme and a host", o.URL)
	}
	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- errors.New("connect_error")
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	logger.Info("Event publisher connected.", "sid", io.Id())
	return &SocketPublisher{client: io}, nil
}

// Publish implements Publisher.
func (p *SocketPublisher) Publish(ctx context.Context, ev Event) error {
	if !p.client.Connected() {
		return ErrNotConnected
	}
	p.client.Emit(SocketEventName, ev)
	return nil
}

// Close implements Publisher.
func (p *SocketPublisher) Close() error {
	p.client.Disconnect()
	return nil
}
