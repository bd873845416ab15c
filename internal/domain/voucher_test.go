package domain

import (
	"testing"
	"time"
)

func TestVoucher_Active(t *testing.T) {
	tests := []struct {
		name   string
		status VoucherStatus
		active bool
	}{
		{name: "available is not active", status: StatusAvailable, active: false},
		{name: "assigned is active", status: StatusAssigned, active: true},
		{name: "verified is active", status: StatusVerified, active: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Voucher{Status: tt.status}
			if got := v.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestVoucher_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		status    VoucherStatus
		expiresAt *time.Time
		expired   bool
	}{
		{name: "assigned past window", status: StatusAssigned, expiresAt: &past, expired: true},
		{name: "assigned inside window", status: StatusAssigned, expiresAt: &future, expired: false},
		{name: "available never expires", status: StatusAvailable, expiresAt: nil, expired: false},
		{name: "verified never expires", status: StatusVerified, expiresAt: &past, expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Voucher{Status: tt.status, ExpiresAt: tt.expiresAt}
			if got := v.Expired(now); got != tt.expired {
				t.Errorf("Expired() = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestVerificationURL(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		voucherID string
		want      string
	}{
		{
			name:      "plain id",
			base:      "https://verify.example.com/start",
			voucherID: "VCH-001",
			want:      "https://verify.example.com/start?voucherId=VCH-001",
		},
		{
			name:      "id requiring escaping",
			base:      "https://verify.example.com/start",
			voucherID: "a b&c",
			want:      "https://verify.example.com/start?voucherId=a+b%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerificationURL(tt.base, tt.voucherID); got != tt.want {
				t.Errorf("VerificationURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
