package api

// CountryCode represents the country of a customer
type CountryCode struct {
	// CountryCode is the ISO 3166-1 alpha-2 code
	CountryCode string `json:"country_code,omitempty"`
}

func (c *CountryCode) clone() *CountryCode {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}
