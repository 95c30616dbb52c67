package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestValidateLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []JournalEntryLine
		wantErr error
	}{
		{
			name: "balanced two lines",
			lines: []JournalEntryLine{
				DebitLine(1, d("100.00")),
				CreditLine(2, d("100.00")),
			},
		},
		{
			name: "balanced multi line",
			lines: []JournalEntryLine{
				DebitLine(1, d("500.00")),
				CreditLine(2, d("470.00")),
				CreditLine(3, d("30.00")),
			},
		},
		{
			name:    "single line rejected",
			lines:   []JournalEntryLine{DebitLine(1, d("100.00"))},
			wantErr: ErrInvalidLine,
		},
		{
			name:    "empty rejected",
			lines:   nil,
			wantErr: ErrInvalidLine,
		},
		{
			name: "unbalanced rejected",
			lines: []JournalEntryLine{
				DebitLine(1, d("100.00")),
				CreditLine(2, d("99.99")),
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name: "negative amount rejected",
			lines: []JournalEntryLine{
				DebitLine(1, d("-100.00")),
				CreditLine(2, d("-100.00")),
			},
			wantErr: ErrInvalidLine,
		},
		{
			name: "both sides positive rejected",
			lines: []JournalEntryLine{
				{AccountID: 1, DebitAmount: d("100.00"), CreditAmount: d("100.00")},
				CreditLine(2, decimal.Zero),
			},
			wantErr: ErrInvalidLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(tt.lines)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignedBalance(t *testing.T) {
	asset := &Account{Kind: KindAsset}
	assert.True(t, asset.DebitNormal())
	assert.True(t, asset.SignedBalance(d("500.00"), d("200.00")).Equal(d("300.00")))

	revenue := &Account{Kind: KindRevenue}
	assert.False(t, revenue.DebitNormal())
	assert.True(t, revenue.SignedBalance(d("50.00"), d("200.00")).Equal(d("150.00")))

	expense := &Account{Kind: KindExpense}
	assert.True(t, expense.DebitNormal())

	liability := &Account{Kind: KindLiability}
	assert.False(t, liability.DebitNormal())
}
