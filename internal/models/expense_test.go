package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), "category %q", c)
	}
	assert.False(t, Category("Gadgets").Valid())
	assert.False(t, Category("").Valid())
	// Values are case-sensitive.
	assert.False(t, Category("groceries").Valid())
}

func TestPaymentModeValid(t *testing.T) {
	for _, m := range PaymentModes {
		assert.True(t, m.Valid(), "payment mode %q", m)
	}
	assert.False(t, PaymentMode("Barter").Valid())
	assert.False(t, PaymentMode("upi").Valid())
}
