// Package rest implements the protocol between API resources and the PayPal REST
// API: a resource builds a Request and hands it to a Caller, which returns the raw
// JSON response.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lbijlsma/paypal-sdk-go/pkg/auth"
	"github.com/lbijlsma/paypal-sdk-go/pkg/config"
	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"golang.org/x/oauth2"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// DefaultUserAgent is sent unless the config sets a user agent
	DefaultUserAgent = "PayPalSDK/paypal-sdk-go"
	// RequestIDHeader makes POST calls idempotent
	RequestIDHeader = "PayPal-Request-Id"

	defaultBackoff = 200 * time.Millisecond
	maxErrorBody   = 1 << 20
)

// Request is a single REST call
type Request struct {
	Method string
	// Path below the API endpoint, i.e. /v1/vault/carrier-accounts
	Path   string
	Body   []byte
	Header http.Header
	// APIContext overrides the context of the Caller if set
	APIContext *APIContext
}

// Caller executes requests and returns the JSON response body
//
// Implementations return an *Error for non-2xx responses and a *TransportError
// if no response was received.
type Caller interface {
	Execute(ctx context.Context, req *Request) ([]byte, error)
}

// CallerFunc adapts a function to a Caller
type CallerFunc func(ctx context.Context, req *Request) ([]byte, error)

func (f CallerFunc) Execute(ctx context.Context, req *Request) ([]byte, error) {
	return f(ctx, req)
}

// Option configures a Call
type Option func(*Call)

// WithHTTPClient sets the client used for API and token requests
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Call) {
		c.client = cl
	}
}

// WithTokenCache overrides the token cache derived from the config. nil disables
// token caching.
func WithTokenCache(cache auth.TokenCache) Option {
	return func(c *Call) {
		c.cache = cache
		c.cacheSet = true
	}
}

// WithLogger sets the parent logger
func WithLogger(log log15.Logger) Option {
	return func(c *Call) {
		c.log = log
	}
}

// WithBackoff sets the base delay between attempts. The n-th retry waits n times
// the delay.
func WithBackoff(d time.Duration) Option {
	return func(c *Call) {
		c.backoff = d
	}
}

// Call is the default Caller. It authenticates with the credentials of the
// APIContext and sends the request to the configured endpoint.
type Call struct {
	apiCtx   *APIContext
	client   *http.Client
	cache    auth.TokenCache
	cacheSet bool
	backoff  time.Duration
	log      log15.Logger
}

// NewCall creates a Call for the given context
func NewCall(apiCtx *APIContext, opts ...Option) *Call {
	c := &Call{
		apiCtx:  apiCtx,
		client:  http.DefaultClient,
		backoff: defaultBackoff,
		log:     env.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.New(log15.Ctx{"pkg": "github.com/lbijlsma/paypal-sdk-go/pkg/rest"})
	if !c.cacheSet && apiCtx != nil {
		c.cache = tokenCache(apiCtx.Config())
	}
	return c
}

var (
	redisCacheMu sync.Mutex
	redisCaches  = make(map[string]*auth.RedisCache)
)

// tokenCache returns the cache configured in cfg. Redis caches are shared per
// address and DB.
func tokenCache(cfg config.Config) auth.TokenCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Backend != config.CacheRedis {
		return auth.DefaultCache
	}
	r := cfg.Cache.Redis
	key := fmt.Sprintf("%s/%d/%s", r.Address, r.DB, r.KeyPrefix)
	redisCacheMu.Lock()
	defer redisCacheMu.Unlock()
	if cache, ok := redisCaches[key]; ok {
		return cache
	}
	cache := auth.NewRedisCache(auth.NewRedisClient(r.Address, r.Password, r.DB), r.KeyPrefix)
	redisCaches[key] = cache
	return cache
}

// Execute sends the request. Connection failures and gateway errors are retried
// as configured, a rejected access token is renewed once.
func (c *Call) Execute(ctx context.Context, req *Request) ([]byte, error) {
	apiCtx := req.APIContext
	if apiCtx == nil {
		apiCtx = c.apiCtx
	}
	if apiCtx == nil {
		return nil, errors.New("rest: no API context")
	}
	cfg := apiCtx.Config()
	endpoint := cfg.BaseURL()
	url := endpoint + req.Path
	log := c.log.New(log15.Ctx{
		"method": req.Method,
		"url":    url,
	})
	timeout, err := cfg.HTTP.Timeout.Duration()
	if err != nil {
		return nil, fmt.Errorf("rest: invalid http timeout: %w", err)
	}
	cache := c.cache
	if req.APIContext != nil && !c.cacheSet {
		cache = tokenCache(cfg)
	}
	cred := apiCtx.Credential()
	cacheKey := auth.CacheKey(endpoint, cred.ClientID)

	requestID := apiCtx.RequestID()
	if requestID == "" && req.Method != http.MethodGet {
		requestID = uuid.NewString()
	}

	renewed := false
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err = c.wait(ctx, attempt); err != nil {
				return nil, &TransportError{Method: req.Method, URL: url, Err: err}
			}
		}
		start := time.Now()
		st := &callState{
			req:       req,
			url:       url,
			tokenURL:  endpoint + auth.TokenPath,
			requestID: requestID,
			userAgent: cfg.HTTP.UserAgent,
			timeout:   timeout,
			src:       cred.TokenSource(ctx, endpoint, c.client, cache),
		}
		var body []byte
		body, err = c.attempt(ctx, st)
		if err == nil {
			log.Debug("call succeeded", log15.Ctx{
				"attempt":    attempt,
				"durationMs": time.Since(start).Milliseconds(),
				"bytes":      len(body),
			})
			return body, nil
		}
		if hasStatus(err, http.StatusUnauthorized) && !renewed && cache != nil {
			renewed = true
			log.Info("access token rejected. renewing...")
			if delErr := cache.DeleteToken(ctx, cacheKey); delErr != nil {
				log.Warn("error removing cached token", log15.Ctx{"err": delErr})
			}
			attempt--
			continue
		}
		if attempt >= cfg.HTTP.Retry || !retryable(ctx, err) {
			log.Warn("call failed", log15.Ctx{"err": err, "attempt": attempt})
			return nil, err
		}
		log.Info("call failed. will retry", log15.Ctx{"err": err, "attempt": attempt})
	}
}

func (c *Call) wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	return hasStatus(err, http.StatusBadGateway) ||
		hasStatus(err, http.StatusServiceUnavailable) ||
		hasStatus(err, http.StatusGatewayTimeout)
}

// callState is what a single attempt needs to know about the call
type callState struct {
	req       *Request
	url       string
	tokenURL  string
	requestID string
	userAgent string
	timeout   time.Duration
	src       oauth2.TokenSource
}

func (c *Call) attempt(ctx context.Context, st *callState) ([]byte, error) {
	req, url := st.req, st.url
	tok, err := st.src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, newError(http.MethodPost, st.tokenURL, retrieveErr.Response.StatusCode, retrieveErr.Body)
		}
		return nil, &TransportError{Method: req.Method, URL: url, Err: fmt.Errorf("access token: %w", err)}
	}
	if st.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	userAgent := st.userAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", userAgent)
	if st.requestID != "" {
		httpReq.Header.Set(RequestIDHeader, st.requestID)
	}
	tok.SetAuthHeader(httpReq)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newError(req.Method, url, resp.StatusCode, respBody)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: url, Err: fmt.Errorf("read response: %w", err)}
	}
	return respBody, nil
}
