package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment-backend/internal/domains/uom/model"
)

func TestConvert(t *testing.T) {
	cases := []struct {
		name    string
		qty     string
		from    string
		to      string
		want    string
		wantUom string
	}{
		{name: "kg to g", qty: "2.5", from: "kg", to: "g", want: "2500", wantUom: "g"},
		{name: "g to kg", qty: "750", from: "g", to: "kg", want: "0.75", wantUom: "kg"},
		{name: "mg to kg", qty: "1500000", from: "mg", to: "kg", want: "1.5", wantUom: "kg"},
		{name: "l to ml", qty: "0.33", from: "l", to: "ml", want: "330", wantUom: "ml"},
		{name: "dozen to each", qty: "3", from: "dozen", to: "each", want: "36", wantUom: "each"},
		{name: "pair to each", qty: "4", from: "pair", to: "each", want: "8", wantUom: "each"},
		{name: "ea alias", qty: "5", from: "ea", to: "each", want: "5", wantUom: "each"},
		{name: "case insensitive", qty: "1", from: "KG", to: "G", want: "1000", wantUom: "g"},
		{name: "identity", qty: "7.125", from: "m", to: "m", want: "7.125", wantUom: "m"},
		{name: "rounds to storage precision", qty: "1", from: "g", to: "kg", want: "0.001", wantUom: "kg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(decimal.RequireFromString(tc.qty), tc.from, tc.to)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got.Quantity),
				"got %s", got.Quantity)
			assert.Equal(t, tc.wantUom, got.Uom)
		})
	}
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(1), "furlong", "m")
	assert.True(t, errors.Is(err, model.ErrUnknownUom))

	_, err = Convert(decimal.NewFromInt(1), "m", "parsec")
	assert.True(t, errors.Is(err, model.ErrUnknownUom))

	_, err = Convert(decimal.NewFromInt(1), "kg", "ml")
	assert.True(t, errors.Is(err, model.ErrDimensionMismatch))
}
