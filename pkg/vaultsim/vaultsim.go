// Package vaultsim simulates the carrier account endpoints of the PayPal vault
// and the OAuth2 token endpoint in memory.
package vaultsim

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	CarrierAccountsPath = "/v1/vault/carrier-accounts"
	TokenPath           = "/v1/oauth2/token"

	tokenLifetime = 9 * time.Hour
)

// account states
const (
	StatePending   = "PENDING_CONFIRMATION"
	StateConfirmed = "CONFIRMED"
)

// RecordedCall is a vault request received by the simulator
type RecordedCall struct {
	Method    string
	Path      string
	RequestID string
	Body      []byte
}

type failure struct {
	status int
	left   int
}

// Simulator is an http.Handler serving the simulated endpoints
type Simulator struct {
	clientID string
	secret   string
	validity time.Duration
	now      func() time.Time

	log    log15.Logger
	router *mux.Router

	mu       sync.Mutex
	tokens   map[string]time.Time
	accounts map[string]map[string]json.RawMessage
	pins     map[string]string
	requests map[string][]byte
	calls    []RecordedCall
	fail     *failure
}

// NewSimulator creates a simulator accepting the given client credentials
func NewSimulator(clientID, secret string) *Simulator {
	s := &Simulator{
		clientID: clientID,
		secret:   secret,
		validity: 30 * 24 * time.Hour,
		now:      time.Now,
		log: env.Log.New(log15.Ctx{
			"pkg": "github.com/lbijlsma/paypal-sdk-go/pkg/vaultsim",
		}),
		tokens:   make(map[string]time.Time),
		accounts: make(map[string]map[string]json.RawMessage),
		pins:     make(map[string]string),
		requests: make(map[string][]byte),
	}
	r := mux.NewRouter()
	r.HandleFunc(TokenPath, s.tokenHandler).Methods(http.MethodPost)
	v := r.PathPrefix(CarrierAccountsPath).Subrouter()
	v.Use(s.authenticate, s.record)
	v.HandleFunc("", s.createHandler).Methods(http.MethodPost)
	v.HandleFunc("/{id}", s.getHandler).Methods(http.MethodGet)
	v.HandleFunc("/{id}", s.deleteHandler).Methods(http.MethodDelete)
	v.HandleFunc("/{id}/confirm", s.confirmHandler).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "The requested resource was not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_SUPPORTED", "The server does not implement the requested HTTP method", nil)
	})
	s.router = r
	return s
}

// SetValidity sets how long created carrier accounts are valid
func (s *Simulator) SetValidity(d time.Duration) {
	s.mu.Lock()
	s.validity = d
	s.mu.Unlock()
}

// SetClock replaces the time source
func (s *Simulator) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// FailNext makes the next n vault requests fail with the given status
func (s *Simulator) FailNext(status, n int) {
	s.mu.Lock()
	s.fail = &failure{status: status, left: n}
	s.mu.Unlock()
}

// PIN returns the confirmation PIN sent for the carrier account
func (s *Simulator) PIN(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins[id]
}

// Calls returns the vault requests received so far
func (s *Simulator) Calls() []RecordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedCall(nil), s.calls...)
}

// Account returns the stored representation of a carrier account
func (s *Simulator) Account(id string) (map[string]json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return copyMembers(acc), true
}

// RevokeTokens invalidates all issued access tokens
func (s *Simulator) RevokeTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]time.Time)
	s.mu.Unlock()
}

func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type errorBody struct {
	Name            string        `json:"name"`
	Message         string        `json:"message"`
	DebugID         string        `json:"debug_id"`
	InformationLink string        `json:"information_link"`
	Details         []errorDetail `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, msg string, details []errorDetail) {
	writeJSON(w, status, errorBody{
		Name:            name,
		Message:         msg,
		DebugID:         strings.Replace(uuid.NewString(), "-", "", -1)[:13],
		InformationLink: "https://developer.paypal.com/docs/api/vault/#errors",
		Details:         details,
	})
}

func (s *Simulator) tokenHandler(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != s.clientID || secret != s.secret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "Client Authentication failed",
		})
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "Grant Type is NULL",
		})
		return
	}
	token := "A21AA" + strings.Replace(uuid.NewString(), "-", "", -1)
	s.mu.Lock()
	s.tokens[token] = s.now().Add(tokenLifetime)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scope":        "https://uri.paypal.com/services/vault",
		"access_token": token,
		"token_type":   "Bearer",
		"app_id":       "APP-80W284485P519543T",
		"expires_in":   int(tokenLifetime.Seconds()),
	})
}

func (s *Simulator) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		s.mu.Lock()
		exp, ok := s.tokens[token]
		valid := ok && token != auth && s.now().Before(exp)
		s.mu.Unlock()
		if !valid {
			writeError(w, http.StatusUnauthorized, "AUTHENTICATION_FAILURE", "Authentication failed due to invalid authentication credentials or a missing Authorization header.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Simulator) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readBody(r)
		}
		s.mu.Lock()
		s.calls = append(s.calls, RecordedCall{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("PayPal-Request-Id"),
			Body:      body,
		})
		fail := s.fail
		status := 0
		if fail != nil && fail.left > 0 {
			fail.left--
			status = fail.status
		}
		s.mu.Unlock()
		s.log.Debug("vault request", log15.Ctx{"method": r.Method, "path": r.URL.Path})
		if status != 0 {
			writeError(w, status, "INTERNAL_SERVICE_ERROR", "An internal service error has occurred", nil)
			return
		}
		next.ServeHTTP(w, withBody(r, body))
	})
}

func (s *Simulator) createHandler(w http.ResponseWriter, r *http.Request) {
	members := make(map[string]json.RawMessage)
	if err := json.NewDecoder(r.Body).Decode(&members); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "Incoming JSON request does not map to API request", nil)
		return
	}
	var phone string
	if raw, ok := members["phone_number"]; ok {
		json.Unmarshal(raw, &phone)
	}
	if phone == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request - see details", []errorDetail{
			{Field: "phone_number", Issue: "Required field missing"},
		})
		return
	}
	requestID := r.Header.Get("PayPal-Request-Id")

	s.mu.Lock()
	if prev, ok := s.requests[requestID]; ok && requestID != "" {
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write(prev)
		return
	}
	id := "CARRIER-" + strings.ToUpper(strings.Replace(uuid.NewString(), "-", "", -1))[:20]
	members["id"] = mustJSON(id)
	members["valid_until"] = mustJSON(s.now().Add(s.validity).UTC().Format(time.RFC3339))
	members["state"] = mustJSON(StatePending)
	members["links"] = links(id)
	s.accounts[id] = members
	s.pins[id] = newPIN()
	resp := mustJSON(members)
	if requestID != "" {
		s.requests[requestID] = resp
	}
	s.mu.Unlock()

	s.log.Info("carrier account created. confirmation code sent", log15.Ctx{
		"id":               id,
		"confirmationCode": s.PIN(id),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(resp)
}

func (s *Simulator) getHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	acc, ok := s.Account(id)
	if !ok {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Simulator) deleteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.accounts[id]
	delete(s.accounts, id)
	delete(s.pins, id)
	s.mu.Unlock()
	if !ok {
		notFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Simulator) confirmHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conf := struct {
		Pin string `json:"pin"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&conf); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "Incoming JSON request does not map to API request", nil)
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[id]
	if !ok {
		s.mu.Unlock()
		notFound(w, id)
		return
	}
	if conf.Pin == "" || conf.Pin != s.pins[id] {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request - see details", []errorDetail{
			{Field: "pin", Issue: "Invalid PIN"},
		})
		return
	}
	acc["state"] = mustJSON(StateConfirmed)
	acc["valid_until"] = mustJSON(s.now().Add(s.validity).UTC().Format(time.RFC3339))
	resp := copyMembers(acc)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func notFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", fmt.Sprintf("The requested resource (%s) was not found", id), nil)
}

func links(id string) json.RawMessage {
	self := CarrierAccountsPath + "/" + id
	return mustJSON([]map[string]string{
		{"href": self, "rel": "self", "method": http.MethodGet},
		{"href": self, "rel": "delete", "method": http.MethodDelete},
		{"href": self + "/confirm", "rel": "confirm", "method": http.MethodPost},
	})
}

func newPIN() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "0000"
	}
	return fmt.Sprintf("%04d", n.Int64())
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func copyMembers(m map[string]json.RawMessage) map[string]json.RawMessage {
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
