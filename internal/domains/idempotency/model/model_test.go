package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	ref := "reservation/1b4e28ba-2fa1-11d2-883f-0016d3cca427"

	cases := []struct {
		name     string
		existing *Record
		bodyHash string
		want     Outcome
		wantRef  bool
		wantErr  error
	}{
		{
			name:     "fresh key proceeds",
			existing: nil,
			bodyHash: "h1",
			want:     OutcomeProceed,
		},
		{
			name:     "in progress blocks",
			existing: &Record{Status: StatusInProgress, BodyHash: "h1"},
			bodyHash: "h1",
			wantErr:  ErrInProgress,
		},
		{
			name:     "succeeded with same body short-circuits",
			existing: &Record{Status: StatusSucceeded, BodyHash: "h1", EntityRef: &ref},
			bodyHash: "h1",
			want:     OutcomeShortCircuit,
			wantRef:  true,
		},
		{
			name:     "succeeded with different body conflicts",
			existing: &Record{Status: StatusSucceeded, BodyHash: "h1"},
			bodyHash: "h2",
			wantErr:  ErrConflict,
		},
		{
			name:     "failed run releases the key",
			existing: &Record{Status: StatusFailed, BodyHash: "h1"},
			bodyHash: "h2",
			want:     OutcomeProceed,
		},
		{
			name:     "unknown status conflicts",
			existing: &Record{Status: Status("GARBAGE")},
			bodyHash: "h1",
			wantErr:  ErrConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decide(tc.existing, tc.bodyHash)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Outcome)
			if tc.wantRef {
				require.NotNil(t, got.EntityRef)
				assert.Equal(t, ref, *got.EntityRef)
			}
		})
	}
}

func TestOperationInProgressError(t *testing.T) {
	cases := []struct {
		op       string
		wantCode string
	}{
		{op: "reservation_allocate", wantCode: "RESERVATION_ALLOCATE_IN_PROGRESS"},
		{op: "reservation_cancel", wantCode: "RESERVATION_CANCEL_IN_PROGRESS"},
		{op: "reservation_fulfill", wantCode: "RESERVATION_FULFILL_IN_PROGRESS"},
		{op: "shipment_post", wantCode: "SHIPMENT_POST_IN_PROGRESS"},
	}

	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			err := NewOperationInProgressError(tc.op)

			assert.True(t, errors.Is(err, ErrInProgress))
			assert.Equal(t, tc.wantCode, InProgressCode(err))
			assert.Contains(t, err.Error(), tc.op)
		})
	}
}

func TestInProgressCodeFallback(t *testing.T) {
	assert.Equal(t, "OPERATION_IN_PROGRESS", InProgressCode(ErrInProgress))
}
