package models_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dalemusser/accredithub/internal/domain/models"
)

func TestMoney_JSON(t *testing.T) {
	tests := []struct {
		in   string
		want models.Money
	}{
		{`150.25`, 15025},
		{`"99.5"`, 9950},
		{`0.1`, 10},
		{`0.005`, 1},
		{`1000`, 100000},
		{`null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m models.Money
			if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if m != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, m, tt.want)
			}
		})
	}

	if _, err := json.Marshal(models.Money(-12345)); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, _ := json.Marshal(models.Money(-12345))
	if string(b) != "-123.45" {
		t.Errorf("Marshal = %s, want -123.45", b)
	}

	var m models.Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Error("expected error for non-numeric amount")
	}
}

func TestMoney_UnmarshalOutOfRange(t *testing.T) {
	for _, in := range []string{`1e17`, `-1e17`, `"92233720368547758.08"`, `1e300`} {
		t.Run(in, func(t *testing.T) {
			var m models.Money = 42
			err := json.Unmarshal([]byte(in), &m)
			if !errors.Is(err, models.ErrAmountOutOfRange) {
				t.Fatalf("Unmarshal(%s) err = %v, want ErrAmountOutOfRange", in, err)
			}
			if m != 42 {
				t.Errorf("Unmarshal(%s) changed value to %d", in, m)
			}
		})
	}

	// Largest amounts that still fit are accepted unchanged.
	var m models.Money
	if err := json.Unmarshal([]byte(`90000000000000000`), &m); err != nil {
		t.Fatalf("Unmarshal near limit: %v", err)
	}
	if m != models.Money(9000000000000000000) {
		t.Errorf("near limit = %d", m)
	}
}

func TestReceiptKind_Signed(t *testing.T) {
	if got := models.ReceiptReimbursement.Signed(500); got != 500 {
		t.Errorf("reimbursement signed = %d", got)
	}
	if got := models.ReceiptDisbursement.Signed(500); got != -500 {
		t.Errorf("disbursement signed = %d", got)
	}
	if models.ReceiptKind("refund").Valid() {
		t.Error("unknown kind should be invalid")
	}
}
