package vaultsim

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const (
	testClient = "client"
	testSecret = "secret"
)

func token(s *Simulator) string {
	form := url.Values{"grant_type": {"client_credentials"}}
	r := httptest.NewRequest(http.MethodPost, TokenPath, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.SetBasicAuth(testClient, testSecret)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	So(w.Code, ShouldEqual, http.StatusOK)
	resp := struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}{}
	So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
	So(resp.TokenType, ShouldEqual, "Bearer")
	return resp.AccessToken
}

func do(s *Simulator, tok, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	for k, v := range header {
		r.Header[k] = v
	}
	if tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func members(w *httptest.ResponseRecorder) map[string]interface{} {
	m := make(map[string]interface{})
	So(json.Unmarshal(w.Body.Bytes(), &m), ShouldBeNil)
	return m
}

func TestToken(t *testing.T) {
	Convey("Given a simulator", t, func() {
		s := NewSimulator(testClient, testSecret)

		Convey("When requesting a token with wrong credentials", func() {
			r := httptest.NewRequest(http.MethodPost, TokenPath, strings.NewReader("grant_type=client_credentials"))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.SetBasicAuth(testClient, "wrong")
			w := httptest.NewRecorder()
			s.ServeHTTP(w, r)

			Convey("It should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(members(w)["error"], ShouldEqual, "invalid_client")
			})
		})

		Convey("When requesting a token without a grant type", func() {
			r := httptest.NewRequest(http.MethodPost, TokenPath, strings.NewReader(""))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.SetBasicAuth(testClient, testSecret)
			w := httptest.NewRecorder()
			s.ServeHTTP(w, r)

			Convey("It should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When calling the vault without a token", func() {
			w := do(s, "", http.MethodGet, CarrierAccountsPath+"/CARRIER-1", "", nil)

			Convey("It should fail authentication", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(members(w)["name"], ShouldEqual, "AUTHENTICATION_FAILURE")
			})
			Convey("The call should not be recorded", func() {
				So(s.Calls(), ShouldBeEmpty)
			})
		})

		Convey("Given an issued token", func() {
			tok := token(s)

			Convey("When the tokens are revoked", func() {
				s.RevokeTokens()

				Convey("The token should no longer be accepted", func() {
					w := do(s, tok, http.MethodGet, CarrierAccountsPath+"/CARRIER-1", "", nil)
					So(w.Code, ShouldEqual, http.StatusUnauthorized)
				})
			})

			Convey("When the token expired", func() {
				s.SetClock(func() time.Time { return time.Now().Add(10 * time.Hour) })

				Convey("The token should no longer be accepted", func() {
					w := do(s, tok, http.MethodGet, CarrierAccountsPath+"/CARRIER-1", "", nil)
					So(w.Code, ShouldEqual, http.StatusUnauthorized)
				})
			})
		})
	})
}

func TestCarrierAccounts(t *testing.T) {
	Convey("Given a simulator and a token", t, func() {
		s := NewSimulator(testClient, testSecret)
		now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
		s.SetClock(func() time.Time { return now })
		s.SetValidity(24 * time.Hour)
		tok := token(s)

		Convey("When creating a carrier account without phone number", func() {
			w := do(s, tok, http.MethodPost, CarrierAccountsPath, `{"phone_source":"PAYPAL"}`, nil)

			Convey("It should be a validation error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				m := members(w)
				So(m["name"], ShouldEqual, "VALIDATION_ERROR")
				So(m["details"], ShouldHaveLength, 1)
			})
		})

		Convey("When creating a carrier account with malformed JSON", func() {
			w := do(s, tok, http.MethodPost, CarrierAccountsPath, `{`, nil)

			Convey("It should be a malformed request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(members(w)["name"], ShouldEqual, "MALFORMED_REQUEST")
			})
		})

		Convey("When creating a carrier account", func() {
			header := http.Header{"Paypal-Request-Id": {"req-1"}}
			w := do(s, tok, http.MethodPost, CarrierAccountsPath, `{"phone_number":"4085551234","external_customer_id":"cust-1"}`, header)

			So(w.Code, ShouldEqual, http.StatusCreated)
			created := members(w)
			id, _ := created["id"].(string)

			Convey("It should be pending confirmation", func() {
				So(id, ShouldStartWith, "CARRIER-")
				So(created["state"], ShouldEqual, StatePending)
				So(created["phone_number"], ShouldEqual, "4085551234")
				So(created["external_customer_id"], ShouldEqual, "cust-1")
				So(created["valid_until"], ShouldEqual, "2026-10-16T12:00:00Z")
				So(created["links"], ShouldHaveLength, 3)
			})

			Convey("A PIN should be issued", func() {
				So(s.PIN(id), ShouldHaveLength, 4)
			})

			Convey("The call should be recorded with its request id", func() {
				calls := s.Calls()
				So(calls, ShouldHaveLength, 1)
				So(calls[0].Method, ShouldEqual, http.MethodPost)
				So(calls[0].RequestID, ShouldEqual, "req-1")
				So(string(calls[0].Body), ShouldContainSubstring, "4085551234")
			})

			Convey("When repeating the request with the same request id", func() {
				again := do(s, tok, http.MethodPost, CarrierAccountsPath, `{"phone_number":"4085551234"}`, header)

				Convey("The stored response should be returned", func() {
					So(again.Code, ShouldEqual, http.StatusCreated)
					So(members(again)["id"], ShouldEqual, id)
				})
			})

			Convey("When getting the carrier account", func() {
				got := do(s, tok, http.MethodGet, CarrierAccountsPath+"/"+id, "", nil)

				Convey("It should match the created account", func() {
					So(got.Code, ShouldEqual, http.StatusOK)
					So(members(got), ShouldResemble, created)
				})
			})

			Convey("When confirming with a wrong PIN", func() {
				pin := "0000"
				if s.PIN(id) == pin {
					pin = "1111"
				}
				conf := do(s, tok, http.MethodPost, CarrierAccountsPath+"/"+id+"/confirm", `{"pin":"`+pin+`"}`, nil)

				Convey("It should be a validation error on the pin", func() {
					So(conf.Code, ShouldEqual, http.StatusBadRequest)
					m := members(conf)
					So(m["name"], ShouldEqual, "VALIDATION_ERROR")
				})
				Convey("The account should stay pending", func() {
					acc, ok := s.Account(id)
					So(ok, ShouldBeTrue)
					So(string(acc["state"]), ShouldEqual, `"`+StatePending+`"`)
				})
			})

			Convey("When confirming with the issued PIN", func() {
				now = now.Add(time.Hour)
				conf := do(s, tok, http.MethodPost, CarrierAccountsPath+"/"+id+"/confirm", `{"pin":"`+s.PIN(id)+`"}`, nil)

				Convey("The account should be confirmed", func() {
					So(conf.Code, ShouldEqual, http.StatusOK)
					m := members(conf)
					So(m["state"], ShouldEqual, StateConfirmed)
					So(m["valid_until"], ShouldEqual, "2026-10-16T13:00:00Z")
				})
			})

			Convey("When deleting the carrier account", func() {
				del := do(s, tok, http.MethodDelete, CarrierAccountsPath+"/"+id, "", nil)

				Convey("It should have no content", func() {
					So(del.Code, ShouldEqual, http.StatusNoContent)
					So(del.Body.Len(), ShouldEqual, 0)
				})
				Convey("It should not be found anymore", func() {
					got := do(s, tok, http.MethodGet, CarrierAccountsPath+"/"+id, "", nil)
					So(got.Code, ShouldEqual, http.StatusNotFound)
					So(members(got)["name"], ShouldEqual, "RESOURCE_NOT_FOUND")
				})
				Convey("Deleting again should not be found", func() {
					again := do(s, tok, http.MethodDelete, CarrierAccountsPath+"/"+id, "", nil)
					So(again.Code, ShouldEqual, http.StatusNotFound)
				})
			})
		})

		Convey("When confirming an unknown carrier account", func() {
			w := do(s, tok, http.MethodPost, CarrierAccountsPath+"/CARRIER-X/confirm", `{"pin":"1234"}`, nil)

			Convey("It should not be found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the next calls are set to fail", func() {
			s.FailNext(http.StatusServiceUnavailable, 2)
			first := do(s, tok, http.MethodGet, CarrierAccountsPath+"/CARRIER-X", "", nil)
			second := do(s, tok, http.MethodGet, CarrierAccountsPath+"/CARRIER-X", "", nil)
			third := do(s, tok, http.MethodGet, CarrierAccountsPath+"/CARRIER-X", "", nil)

			Convey("Exactly those calls should fail", func() {
				So(first.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(second.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(third.Code, ShouldEqual, http.StatusNotFound)
				So(s.Calls(), ShouldHaveLength, 3)
			})
		})
	})
}
