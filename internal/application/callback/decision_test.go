package callback_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/application/callback"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/payment"
)

func TestMapDecision(t *testing.T) {
	cases := map[string]payment.Status{
		"ACCEPT":  payment.StatusAuthorised,
		"DECLINE": payment.StatusRefused,
		"CANCEL":  payment.StatusCancelled,
		"ERROR":   payment.StatusError,
		"REVIEW":  payment.StatusError,
		"accept":  payment.StatusError,
		"":        payment.StatusError,
	}

	for code, want := range cases {
		assert.Equalf(t, want, callback.MapDecision(code), "code %q", code)
	}
}

func TestMapDecision_IsTotal(t *testing.T) {
	allowed := map[payment.Status]bool{
		payment.StatusAuthorised: true,
		payment.StatusRefused:    true,
		payment.StatusCancelled:  true,
		payment.StatusError:      true,
	}

	inputs := []string{"ACCEPT ", " ACCEPT", "DECLINED", "CANCELLED", "\x00", "ñ", "ACCEPT,DECLINE"}
	for _, in := range inputs {
		assert.True(t, allowed[callback.MapDecision(in)], "input %q", in)
	}
}
