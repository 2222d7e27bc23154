// Package client is a typed client of the tenant portal REST API and its
// push channel.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/notify"
	"tenant-portal-backend/internal/service"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the error body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SubmitPayment(ctx context.Context, in service.SubmitPaymentInput) (*domain.Payment, error) {
	var out struct {
		Payment domain.Payment `json:"payment"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payments", in, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

func (c *Client) GetPayment(ctx context.Context, id int32) (*domain.Payment, error) {
	var out struct {
		Payment domain.Payment `json:"payment"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/payments/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

func (c *Client) ListMyPayments(ctx context.Context) ([]domain.Payment, error) {
	var out struct {
		Payments []domain.Payment `json:"payments"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/payments/mine", nil, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

// TenantRentals returns the tenant's rentals after the server has aged them.
func (c *Client) TenantRentals(ctx context.Context, tenantID int32) ([]domain.Rental, error) {
	var out struct {
		Rentals []domain.Rental `json:"rentals"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/rentals/tenant/%d", tenantID), nil, &out); err != nil {
		return nil, err
	}
	return out.Rentals, nil
}

// Receipt downloads the PDF receipt of a settled payment.
func (c *Client) Receipt(ctx context.Context, id int32) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, fmt.Sprintf("/v1/payments/%d/receipt", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx responses into *APIError.
// The caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Status: resp.StatusCode}
	var decoded struct {
		Error  string            `json:"error"`
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(raw, &decoded) == nil {
		apiErr.Code, apiErr.Message, apiErr.Fields = decoded.Code, decoded.Error, decoded.Fields
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return nil, apiErr
}

// Events is an open, registered push channel.
type Events struct {
	conn *websocket.Conn
}

// Subscribe opens the push channel and registers for the caller's own
// tenant events.
func (c *Client) Subscribe(ctx context.Context) (*Events, error) {
	u, err := url.Parse(c.baseURL + "/v1/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}
	if err := wsjson.Write(ctx, conn, notify.ClientMessage{Type: notify.MessageRegisterTenant}); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("register push channel: %w", err)
	}
	logger.Debug("Push channel opened", "url", u.String())
	return &Events{conn: conn}, nil
}

// Next blocks until the next payment event. Control replies such as the
// registration acknowledgement are skipped.
func (e *Events) Next(ctx context.Context) (domain.PaymentEvent, error) {
	for {
		var msg domain.PaymentEvent
		if err := wsjson.Read(ctx, e.conn, &msg); err != nil {
			return domain.PaymentEvent{}, err
		}
		switch msg.Type {
		case domain.EventPaymentApproved, domain.EventPaymentRejected:
			return msg, nil
		}
	}
}

func (e *Events) Close() error {
	return e.conn.Close(websocket.StatusNormalClosure, "")
}
