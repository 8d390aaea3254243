package event_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/event"
)

func TestDecode_ShouldReturnTypedPayload(t *testing.T) {
	got, err := event.Decode(event.PaymentCompleted, []byte(`{"reference":"ref-1","status":"Authorised","success":true}`))
	require.NoError(t, err)

	p, ok := got.(event.PaymentCompletedPayload)
	require.True(t, ok)
	require.Equal(t, "ref-1", p.Reference)
	require.True(t, p.Success)
}

func TestDecode_ShouldRejectUnknownType(t *testing.T) {
	_, err := event.Decode("NOPE", []byte(`{}`))
	require.Error(t, err)
}
