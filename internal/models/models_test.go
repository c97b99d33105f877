package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"marketplace/internal/apperr"
)

func TestParseSizesAcceptsListAndDelimited(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   SizeList
	}{
		{"repeated fields", []string{"S", "m"}, SizeList{SizeS, SizeM}},
		{"comma string", []string{"S, M ,XL"}, SizeList{SizeS, SizeM, SizeXL}},
		{"pipe string", []string{"xs|xxl"}, SizeList{SizeXS, SizeXXL}},
		{"json array", []string{`["L","S"]`}, SizeList{SizeL, SizeS}},
		{"blank", []string{"  "}, SizeList{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSizes(tc.values...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSizesRejectsInvalidEntries(t *testing.T) {
	for _, raw := range []string{"S,Q", "S,,M", "M,", `["S", 3]`, "XXXL", "S,S", "s|S"} {
		_, err := ParseSizes(raw)
		require.Error(t, err, raw)
		assert.True(t, apperr.Is(err, apperr.Validation), raw)
	}
}

func TestParseSizesRejectsRepeatsAcrossValues(t *testing.T) {
	_, err := ParseSizes("S,M", "m")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestSizeListJSON(t *testing.T) {
	var payload struct {
		Sizes SizeList `json:"sizes"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"sizes":"S,M"}`), &payload))
	assert.Equal(t, SizeList{SizeS, SizeM}, payload.Sizes)

	require.NoError(t, json.Unmarshal([]byte(`{"sizes":["L"]}`), &payload))
	assert.Equal(t, SizeList{SizeL}, payload.Sizes)

	assert.Error(t, json.Unmarshal([]byte(`{"sizes":"S,HUGE"}`), &payload))
}

func TestSizeListBSONDecodesLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"sizes": "S|L"})
	require.NoError(t, err)

	var doc struct {
		Sizes SizeList `bson:"sizes"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, SizeList{SizeS, SizeL}, doc.Sizes)

	out, err := bson.Marshal(doc)
	require.NoError(t, err)
	var check bson.M
	require.NoError(t, bson.Unmarshal(out, &check))
	assert.Equal(t, bson.A{"S", "L"}, check["sizes"])
}

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:        {StatusConfirmed, StatusCancelled},
		StatusConfirmed:      {StatusPreparing, StatusCancelled},
		StatusPreparing:      {StatusOutForDelivery, StatusCancelled},
		StatusOutForDelivery: {StatusDelivered},
	}
	all := []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestAccountJSONOmitsPasswordHash(t *testing.T) {
	body, err := json.Marshal(Account{Name: "A", Phone: "+923000000001", PasswordHash: "secret-hash", Role: RoleCustomer})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret-hash")
	assert.NotContains(t, string(body), "passwordHash")
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleCustomer.Valid())
	assert.True(t, RoleShopOwner.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}
