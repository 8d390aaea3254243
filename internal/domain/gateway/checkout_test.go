package gateway_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/domain/gateway"
)

func TestSignedFieldNames_ShouldFollowGatewayOrder(t *testing.T) {
	expected := "access_key,profile_id,transaction_uuid,signed_field_names,unsigned_field_names," +
		"signed_date_time,locale,transaction_type,reference_number,amount,currency," +
		"override_backoffice_post_url,override_custom_cancel_page,override_custom_receipt_page"

	assert.Equal(t, expected, gateway.SignedFieldNames)
	assert.Len(t, strings.Split(gateway.SignedFieldNames, ","), 14)
}

func TestSignedFields_RendersValuesInDeclaredOrder(t *testing.T) {
	req := &gateway.CheckoutRequest{
		AccessKey:       "ak",
		ProfileID:       "pid",
		TransactionUUID: "uuid",
		SignedDateTime:  time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC),
		Locale:          gateway.Locale,
		TransactionType: "sale",
		ReferenceNumber: "reference",
		Amount:          decimal.NewFromInt(10),
		Currency:        gateway.Currency,
	}

	fields := req.SignedFields()
	require.Len(t, fields, 14)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, gateway.SignedFieldNames, strings.Join(names, ","))
	assert.Equal(t, "2024-03-09T08:07:06Z", fields[5].Value)
	assert.Equal(t, "10.00", fields[9].Value)
	assert.Equal(t, gateway.UnsignedFieldNames, fields[4].Value)
}

func TestFormFields_EndsWithSignature(t *testing.T) {
	req := &gateway.CheckoutRequest{Signature: "sig"}

	fields := req.FormFields()

	require.Len(t, fields, 14+5+1)
	assert.Equal(t, "signature", fields[len(fields)-1].Name)
	assert.Equal(t, "sig", fields[len(fields)-1].Value)
}

func TestParseCallback(t *testing.T) {
	cb := gateway.ParseCallback(map[string]string{
		gateway.KeyDecision:        gateway.DecisionAccept,
		gateway.KeyReferenceNumber: "Test",
		gateway.KeyTransactionID:   "8816281505278071",
	})

	assert.Equal(t, gateway.DecisionAccept, cb.Decision)
	assert.Equal(t, "Test", cb.ReferenceNumber)
	assert.Equal(t, "8816281505278071", cb.TransactionID)
	assert.Empty(t, cb.Signature)
}
