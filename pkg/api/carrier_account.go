package api

import (
	"context"
	"encoding/json"
	"net/http"

	pjson "github.com/lbijlsma/paypal-sdk-go/pkg/json"
	"github.com/lbijlsma/paypal-sdk-go/pkg/rest"
	"github.com/lbijlsma/paypal-sdk-go/pkg/validation"
)

// CarrierAccountsPath is the vault collection of carrier accounts
const CarrierAccountsPath = "/v1/vault/carrier-accounts"

// CarrierAccount is a carrier account that can be used to fund a payment
//
// See https://developer.paypal.com/docs/api/#vault
type CarrierAccount struct {
	// ID of the carrier account being saved for later use. Assigned on creation.
	ID          string `json:"id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	// PhoneSource is the method of obtaining the phone number
	PhoneSource string `json:"phone_source,omitempty"`
	// ExternalCustomerID identifies the customer to whom this carrier account
	// belongs. It is generated and provided by the facilitator and required when
	// creating or using a stored funding instrument in vault.
	ExternalCustomerID string       `json:"external_customer_id,omitempty"`
	CountryCode        *CountryCode `json:"country_code,omitempty"`
	// ValidUntil is the date/time until this resource can be used to fund a payment
	ValidUntil string `json:"valid_until,omitempty"`

	// Extra holds members returned by PayPal which are not declared above.
	// They are sent back when the account is encoded.
	Extra pjson.Unknown `json:"-"`
}

// carrierAccount has the fields of CarrierAccount without its methods
type carrierAccount CarrierAccount

func (c CarrierAccount) MarshalJSON() ([]byte, error) {
	return pjson.EncodeWithUnknown(carrierAccount(c), c.Extra)
}

// UnmarshalJSON merges the members of data into c. Members missing in data leave
// the corresponding fields untouched.
func (c *CarrierAccount) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*carrierAccount)(c)); err != nil {
		return err
	}
	unknown, err := pjson.DecodeUnknown(data, carrierAccount{})
	if err != nil {
		return err
	}
	if unknown != nil {
		c.Extra = c.Extra.Merge(unknown)
	}
	return nil
}

func (c CarrierAccount) clone() *CarrierAccount {
	cc := c
	cc.CountryCode = c.CountryCode.clone()
	cc.Extra = c.Extra.Clone()
	return &cc
}

// merged returns a copy of c with the members of the response applied
func (c CarrierAccount) merged(resp []byte) (*CarrierAccount, error) {
	ret := c.clone()
	if err := json.Unmarshal(resp, ret); err != nil {
		return nil, decodeError(err)
	}
	return ret, nil
}

func carrierAccountPath(id string) string {
	return CarrierAccountsPath + "/" + id
}

// Create creates the carrier account in the vault (aka tokenize).
//
// The returned account is c with the members of the response applied, so fields
// PayPal does not return keep their value.
func (c CarrierAccount) Create(ctx context.Context, apiCtx *rest.APIContext, call rest.Caller) (*CarrierAccount, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, encodeError(err)
	}
	resp, err := executeCall(ctx, http.MethodPost, CarrierAccountsPath, payload, nil, apiCtx, call)
	if err != nil {
		return nil, err
	}
	return c.merged(resp)
}

// GetCarrierAccount obtains the carrier account for the given identifier
func GetCarrierAccount(ctx context.Context, carrierAccountID string, apiCtx *rest.APIContext, call rest.Caller) (*CarrierAccount, error) {
	if err := validation.Validate(carrierAccountID, "carrierAccountId"); err != nil {
		return nil, err
	}
	resp, err := executeCall(ctx, http.MethodGet, carrierAccountPath(carrierAccountID), nil, nil, apiCtx, call)
	if err != nil {
		return nil, err
	}
	return CarrierAccount{}.merged(resp)
}

// Delete deletes the carrier account. It returns true if PayPal accepted the
// request.
func (c CarrierAccount) Delete(ctx context.Context, apiCtx *rest.APIContext, call rest.Caller) (bool, error) {
	if err := validation.Validate(c.ID, "Id"); err != nil {
		return false, err
	}
	_, err := executeCall(ctx, http.MethodDelete, carrierAccountPath(c.ID), nil, nil, apiCtx, call)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Confirm confirms the carrier account with the PIN code received by the
// customer.
//
// Like Create, the returned account is c with the members of the response
// applied.
func (c CarrierAccount) Confirm(ctx context.Context, confirmation *CarrierAccountConfirmation, apiCtx *rest.APIContext, call rest.Caller) (*CarrierAccount, error) {
	if err := validation.Validate(c.ID, "Id"); err != nil {
		return nil, err
	}
	if err := validation.Validate(confirmation, "carrierAccountConfirmation"); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(confirmation)
	if err != nil {
		return nil, encodeError(err)
	}
	resp, err := executeCall(ctx, http.MethodPost, carrierAccountPath(c.ID)+"/confirm", payload, nil, apiCtx, call)
	if err != nil {
		return nil, err
	}
	return c.merged(resp)
}
