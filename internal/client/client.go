// Package client is a Go client for the fintrack HTTP API. Summaries are
// computed locally from the fetched records with the same engine the server
// uses.
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

	"golang.org/x/sync/errgroup"

	"github.com/fintrack/fintrack/internal/handler/dto"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/summary"
)

var (
	// ErrUnauthenticated is returned when no token is stored or the server
	// rejected the stored one. The stored token is cleared in the latter case.
	ErrUnauthenticated = errors.New("not logged in")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to one fintrack server.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore replaces the in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// WithClock sets the clock used to resolve summary windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the server at baseURL, for example
// "http://localhost:8080" or "https://example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(),
		tokens:  &MemoryTokenStore{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*dto.UserResponse, error) {
	return c.authenticate(ctx, "/register", dto.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	return c.authenticate(ctx, "/login", dto.LoginRequest{Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*dto.UserResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return nil, err
	}
	if err := c.tokens.Save(resp.Token); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout forgets the stored token. Tokens are stateless, so the server is
// not contacted.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// LoggedIn reports whether a token is stored.
func (c *Client) LoggedIn() bool {
	token, err := c.tokens.Load()
	return err == nil && token != ""
}

// List returns the caller's records of kind, newest first.
func (c *Client) List(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	var resp []dto.RecordResponse
	if err := c.authed(ctx, http.MethodGet, "/"+kind.Collection(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]*model.Record, 0, len(resp))
	for _, r := range resp {
		out = append(out, r.ToModel(kind))
	}
	return out, nil
}

// Create adds a record of kind.
func (c *Client) Create(ctx context.Context, kind model.Kind, input dto.RecordRequest) (*model.Record, error) {
	var resp dto.RecordResponse
	if err := c.authed(ctx, http.MethodPost, "/"+kind.Collection(), input, &resp); err != nil {
		return nil, err
	}
	return resp.ToModel(kind), nil
}

// Delete removes one of the caller's records.
func (c *Client) Delete(ctx context.Context, kind model.Kind, id string) error {
	var resp dto.MessageResponse
	return c.authed(ctx, http.MethodDelete, "/"+kind.Collection()+"/"+url.PathEscape(id), nil, &resp)
}

// Records holds every collection of one user.
type Records struct {
	Expenses    []*model.Record
	Incomes     []*model.Record
	Investments []*model.Record
}

// FetchAll lists the three collections in parallel.
func (c *Client) FetchAll(ctx context.Context) (*Records, error) {
	var out Records
	g, ctx := errgroup.WithContext(ctx)

	fetch := func(kind model.Kind, dst *[]*model.Record) {
		g.Go(func() error {
			records, err := c.List(ctx, kind)
			if err != nil {
				return err
			}
			*dst = records
			return nil
		})
	}
	fetch(model.KindExpense, &out.Expenses)
	fetch(model.KindIncome, &out.Incomes)
	fetch(model.KindInvestment, &out.Investments)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary fetches every record and aggregates them locally over w. Windows
// are resolved in summary.CalendarZone, matching the server.
func (c *Client) Summary(ctx context.Context, w summary.Window) (summary.Summary, error) {
	records, err := c.FetchAll(ctx)
	if err != nil {
		return summary.Summary{}, err
	}
	return summary.Build(records.Expenses, records.Incomes, records.Investments, w, c.now().In(summary.CalendarZone)), nil
}

// authed performs a request with the stored token. A 401 clears the token.
func (c *Client) authed(ctx context.Context, method, path string, body, dst any) error {
	token, err := c.tokens.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrUnauthenticated
	}

	err = c.do(ctx, method, path, token, body, dst)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		if clearErr := c.tokens.Clear(); clearErr != nil {
			return errors.Join(ErrUnauthenticated, clearErr)
		}
		return ErrUnauthenticated
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body dto.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
