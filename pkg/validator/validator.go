package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a phone number has no country prefix.
const DefaultRegion = "EG"

var ErrInvalidPhone = errors.New("invalid phone number")

// PhoneNormalizer turns user input into the E.164 form stored on identities.
type PhoneNormalizer struct {
	region string
}

func NewPhoneNormalizer(region string) *PhoneNormalizer {
	if region == "" {
		region = DefaultRegion
	}
	return &PhoneNormalizer{region: strings.ToUpper(region)}
}

// Normalize parses raw against the configured region and rejects numbers that
// are not valid for that region.
func (p *PhoneNormalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}

	num, err := phonenumbers.Parse(raw, p.region)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumberForRegion(num, p.region) {
		return "", ErrInvalidPhone
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Region returns the configured region code.
func (p *PhoneNormalizer) Region() string {
	return p.region
}

// PhoneValidation is registered on the gin binding engine under the "phone" tag.
func (p *PhoneNormalizer) PhoneValidation() validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := p.Normalize(fl.Field().String())
		return err == nil
	}
}
