package pm

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"pmsync/internal"
	"pmsync/internal/config"
)

// Client talks to the Portfolio Manager XML web services. Requests carrying a
// Mock key are answered by the mock transport when one is attached.
type Client struct {
	transport Transport
	mock      *MockTransport
	logger    internal.LogHandler
}

func NewClient(conf *config.Config, logger internal.LogHandler) *Client {
	timeout := time.Duration(conf.Portfolio.Timeout) * time.Second
	client := &Client{
		transport: NewHTTPTransport(conf.Portfolio.BaseURL, conf.Portfolio.Username, conf.Portfolio.Password, timeout),
		logger:    logger,
	}
	if conf.Portfolio.Mock {
		client.mock = NewMockTransport()
		logger.FeatureEvent("pm", "", "mock mode enabled")
	}
	return client
}

// New builds a client over an arbitrary transport.
func New(transport Transport, logger internal.LogHandler) *Client {
	return &Client{transport: transport, logger: logger}
}

func (c *Client) SetMock(mock *MockTransport) {
	c.mock = mock
}

func (c *Client) MockEnabled() bool {
	return c.mock != nil
}

func (c *Client) raw(ctx context.Context, req *Request) ([]byte, error) {
	var body []byte
	if req.Body != nil {
		text, err := GetXMLString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", req.method(), req.Path, err)
		}
		body = []byte(text)
	}
	transport := c.transport
	if req.Mock != "" && c.mock != nil {
		transport = c.mock
	}
	data, err := transport.Do(ctx, req, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}
	return data, nil
}

// Request performs the call and parses the response into an Object.
func (c *Client) Request(ctx context.Context, req *Request) (Object, error) {
	data, err := c.raw(ctx, req)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Call performs the call and decodes the response into out.
func (c *Client) Call(ctx context.Context, req *Request, out any) error {
	data, err := c.raw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err = xml.Unmarshal(data, out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
