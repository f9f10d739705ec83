// Package supabase wires the Supabase SDKs (GoTrue, PostgREST, Storage) for
// the API. PostgREST clients are built per request so that every query runs
// with the caller's JWT and the table RLS policies apply.
package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/supabase-community/gotrue-go"
	postgrest "github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	restPath = "/rest/v1"
	schema   = "public"

	defaultAuthTimeout = 20 * time.Second
)

type Options struct {
	URL         string
	AnonKey     string
	ServiceKey  string
	AuthTimeout time.Duration
	// Transport overrides the HTTP transport of GoTrue and PostgREST calls.
	Transport http.RoundTripper
}

type Client struct {
	opts   Options
	public *supa.Client
	admin  *supa.Client
	auth   gotrue.Client
	log    zerolog.Logger
}

// New builds the public (anon key) and admin (service role key) clients.
func New(opts Options, log zerolog.Logger) (*Client, error) {
	opts.URL = strings.TrimRight(opts.URL, "/")
	if opts.ServiceKey == "" {
		opts.ServiceKey = opts.AnonKey
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = defaultAuthTimeout
	}

	public, err := supa.NewClient(opts.URL, opts.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase public client: %w", err)
	}
	admin, err := supa.NewClient(opts.URL, opts.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase admin client: %w", err)
	}

	return &Client{
		opts:   opts,
		public: public,
		admin:  admin,
		auth:   public.Auth.WithClient(http.Client{Timeout: opts.AuthTimeout, Transport: opts.Transport}),
		log:    log.With().Str("component", "supabase").Logger(),
	}, nil
}

// Auth returns the anonymous GoTrue client.
func (c *Client) Auth() gotrue.Client {
	return c.auth
}

// AuthFor returns a GoTrue client acting as the holder of token.
func (c *Client) AuthFor(token string) gotrue.Client {
	return c.auth.WithToken(token)
}

// Rest returns a PostgREST client that authenticates as the holder of token
// (the anon role when token is empty). Requests are bound to ctx.
func (c *Client) Rest(ctx context.Context, token string) *postgrest.Client {
	if token == "" {
		token = c.opts.AnonKey
	}
	return c.rest(ctx, c.opts.AnonKey, token)
}

// AdminRest bypasses RLS with the service role key.
func (c *Client) AdminRest(ctx context.Context) *postgrest.Client {
	return c.rest(ctx, c.opts.ServiceKey, c.opts.ServiceKey)
}

func (c *Client) rest(ctx context.Context, apiKey, token string) *postgrest.Client {
	rc := postgrest.NewClient(c.opts.URL+restPath, schema, map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + token,
	})
	base := c.opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rc.Transport.Parent = contextTransport{ctx: ctx, base: base}
	return rc
}

// Storage returns the service role storage client.
func (c *Client) Storage() *storage_go.Client {
	return c.admin.Storage
}

// Ping checks GoTrue health.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := withContext(ctx, c.auth.HealthCheck); err != nil {
		return fmt.Errorf("gotrue health: %w", err)
	}
	return nil
}

// contextTransport attaches a request-scoped context to SDK requests that
// are built without one.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
