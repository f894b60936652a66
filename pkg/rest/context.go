package rest

import (
	"sync"

	"github.com/lbijlsma/paypal-sdk-go/pkg/auth"
	"github.com/lbijlsma/paypal-sdk-go/pkg/config"
)

// APIContext carries the credentials and configuration for API calls. It is
// passed through to the Caller unmodified.
//
// An APIContext can be shared between goroutines.
type APIContext struct {
	credential auth.OAuthTokenCredential
	cfg        config.Config

	mu        sync.RWMutex
	requestID string
}

// NewAPIContext creates a context with the given credentials and config
func NewAPIContext(cred auth.OAuthTokenCredential, cfg config.Config) *APIContext {
	return &APIContext{
		credential: cred,
		cfg:        cfg,
	}
}

// APIContextFromConfig creates a context using the credentials from the config
func APIContextFromConfig(cfg config.Config) *APIContext {
	return NewAPIContext(auth.OAuthTokenCredential{
		ClientID:     cfg.Credentials.ClientID,
		ClientSecret: cfg.Credentials.ClientSecret,
	}, cfg)
}

// DefaultAPIContext creates a context from the default config and the PAYPAL_*
// environment variables
func DefaultAPIContext() (*APIContext, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return APIContextFromConfig(cfg), nil
}

// Config returns the config associated with the context
func (c *APIContext) Config() config.Config {
	return c.cfg
}

// Credential returns the OAuth credential associated with the context
func (c *APIContext) Credential() auth.OAuthTokenCredential {
	return c.credential
}

// RequestID returns the PayPal-Request-Id set on the context
//
// It is empty unless set through SetRequestID. Calls without a request ID on the
// context generate one per call.
func (c *APIContext) RequestID() string {
	c.mu.RLock()
	id := c.requestID
	c.mu.RUnlock()
	return id
}

// SetRequestID sets the PayPal-Request-Id sent with every call, which makes
// PayPal treat repeated calls as the same operation
func (c *APIContext) SetRequestID(id string) {
	c.mu.Lock()
	c.requestID = id
	c.mu.Unlock()
}

// ResetRequestID removes the request ID from the context
func (c *APIContext) ResetRequestID() {
	c.SetRequestID("")
}
