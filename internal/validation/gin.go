package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegisterGinValidators installs the btcaddr, lnaddr and username tags on
// the validator gin uses for binding.
func RegisterGinValidators(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"btcaddr":  func(s string) bool { return BitcoinAddress(s) == nil },
		"lnaddr":   func(s string) bool { return LightningAddress(s) == nil },
		"username": func(s string) bool { return Username(s) == nil },
	}
	for tag, ok := range rules {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		})
		if err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}
