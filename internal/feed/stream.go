package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/zjrosen/prodtests/internal/log"
)

// Stream is one live subscription.
type Stream interface {
	// Messages delivers feed messages. It is closed after Close or once the
	// underlying connection ends.
	Messages() <-chan Message
	// Close stops the subscription. Safe to call more than once.
	Close()
}

// Source opens subscriptions. Open does not block on the network;
// connection failures arrive as KindError messages.
type Source interface {
	Open(ctx context.Context) Stream
}

// Client opens subscriptions against an SSE endpoint.
type Client struct {
	URL  string
	HTTP *http.Client
}

var _ Source = (*Client)(nil)

// NewClient creates a feed client for url.
func NewClient(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{URL: url, HTTP: hc}
}

// Open implements Source.
func (c *Client) Open(ctx context.Context) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &httpStream{
		ch:     make(chan Message, 16),
		cancel: cancel,
	}
	go s.run(ctx, c)
	return s
}

type httpStream struct {
	ch     chan Message
	cancel context.CancelFunc
	once   sync.Once
}

func (s *httpStream) Messages() <-chan Message { return s.ch }

func (s *httpStream) Close() {
	s.once.Do(func() {
		s.cancel()
		log.Debug(log.CatFeed, "Subscription closed")
	})
}

func (s *httpStream) send(ctx context.Context, m Message) bool {
	select {
	case s.ch <- m:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *httpStream) run(ctx context.Context, c *Client) {
	defer close(s.ch)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		s.send(ctx, Message{Kind: KindError, Err: err})
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			s.send(ctx, Message{Kind: KindError, Err: fmt.Errorf("GET %s: %w", c.URL, err)})
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.send(ctx, Message{Kind: KindError, Err: fmt.Errorf("GET %s: status %d", c.URL, resp.StatusCode)})
		return
	}
	log.Info(log.CatFeed, "Subscribed", "url", c.URL)

	p := NewParser(resp.Body)
	for {
		ev, err := p.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrStreamClosed
			}
			s.send(ctx, Message{Kind: KindError, Err: err})
			return
		}
		msg, ok := Classify(ev)
		if !ok {
			continue
		}
		if !s.send(ctx, msg) {
			return
		}
	}
}
