// Package api exposes PayPal REST resources as Go values.
//
// Resource operations never modify the value they are called on. Operations
// returning a resource return a new value on success and nil on error.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"github.com/lbijlsma/paypal-sdk-go/pkg/rest"
	"gopkg.in/inconshreveable/log15.v2"
)

// ErrSerialization is matched by errors encoding a request or decoding a response
var ErrSerialization = errors.New("serialization error")

type serializationError struct {
	op  string
	err error
}

func (e *serializationError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *serializationError) Unwrap() error {
	return e.err
}

func (e *serializationError) Is(target error) bool {
	return target == ErrSerialization
}

func encodeError(err error) error {
	return &serializationError{op: "encode request", err: err}
}

func decodeError(err error) error {
	return &serializationError{op: "decode response", err: err}
}

var log = env.Log.New(log15.Ctx{"pkg": "github.com/lbijlsma/paypal-sdk-go/pkg/api"})

// executeCall is the single path by which resources reach the API. A nil Caller
// is replaced by a rest.Call for the API context, a nil API context by the
// default context.
func executeCall(ctx context.Context, method, path string, payload []byte, header http.Header, apiCtx *rest.APIContext, call rest.Caller) ([]byte, error) {
	if apiCtx == nil {
		var err error
		apiCtx, err = rest.DefaultAPIContext()
		if err != nil {
			return nil, err
		}
	}
	if call == nil {
		call = rest.NewCall(apiCtx)
	}
	log.Debug("executing call", log15.Ctx{
		"method": method,
		"path":   path,
	})
	return call.Execute(ctx, &rest.Request{
		Method:     method,
		Path:       path,
		Body:       payload,
		Header:     header,
		APIContext: apiCtx,
	})
}
