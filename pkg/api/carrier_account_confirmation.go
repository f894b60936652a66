package api

// CarrierAccountConfirmation confirms a carrier account with the PIN code sent to
// the mobile number when creating the carrier account
type CarrierAccountConfirmation struct {
	Pin string `json:"pin"`
}

func NewCarrierAccountConfirmation(pin string) *CarrierAccountConfirmation {
	return &CarrierAccountConfirmation{Pin: pin}
}
