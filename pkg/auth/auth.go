// Package auth obtains and caches OAuth2 access tokens for the PayPal REST API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// TokenPath is the path of the OAuth2 token endpoint
	TokenPath = "/v1/oauth2/token"
)

var (
	ErrNoToken            = errors.New("no token")
	ErrMissingCredentials = errors.New("missing client credentials")
)

// OAuthTokenCredential are the REST app credentials used to obtain access tokens
type OAuthTokenCredential struct {
	ClientID     string
	ClientSecret string
}

// Valid returns true if both the client ID and secret are set
func (c OAuthTokenCredential) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config returns the client credentials flow config for the given endpoint
func (c OAuthTokenCredential) Config(endpoint string) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     strings.TrimRight(endpoint, "/") + TokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
}

// CacheKey is the key under which tokens for the given endpoint and client are cached
func CacheKey(endpoint, clientID string) string {
	return clientID + "@" + strings.TrimRight(endpoint, "/")
}

// TokenSource returns a token source which consults the cache before requesting a
// new token from the endpoint. A nil client uses http.DefaultClient, a nil cache
// disables caching.
func (c OAuthTokenCredential) TokenSource(ctx context.Context, endpoint string, client *http.Client, cache TokenCache) oauth2.TokenSource {
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	cfg := c.Config(endpoint)
	return &cachedSource{
		ctx:   ctx,
		cred:  c,
		key:   CacheKey(endpoint, c.ClientID),
		cache: cache,
		fetch: cfg.Token,
		log: env.Log.New(log15.Ctx{
			"pkg":      "github.com/lbijlsma/paypal-sdk-go/pkg/auth",
			"clientID": c.ClientID,
		}),
	}
}

type cachedSource struct {
	ctx   context.Context
	cred  OAuthTokenCredential
	key   string
	cache TokenCache
	fetch func(context.Context) (*oauth2.Token, error)
	log   log15.Logger
}

func (s *cachedSource) Token() (*oauth2.Token, error) {
	if !s.cred.Valid() {
		return nil, ErrMissingCredentials
	}
	if s.cache != nil {
		t, err := s.cache.Token(s.ctx, s.key)
		if err == nil && t.Valid() {
			return t, nil
		}
		if err != nil && err != ErrNoToken {
			s.log.Warn("error reading token cache", log15.Ctx{"err": err})
		}
	}
	t, err := s.fetch(s.ctx)
	if err != nil {
		s.log.Error("error fetching access token", log15.Ctx{"err": err})
		return nil, err
	}
	s.log.Debug("fetched access token", log15.Ctx{"expiry": t.Expiry})
	if s.cache != nil {
		if err = s.cache.PutToken(s.ctx, s.key, t); err != nil {
			s.log.Warn("error writing token cache", log15.Ctx{"err": err})
		}
	}
	return t, nil
}
