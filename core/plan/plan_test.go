package plan

import (
	"testing"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

func TestNewGate(t *testing.T) {
	tests := []struct {
		name string
		lic  core.LicenseConfig
		want Tier
	}{
		{name: "default", want: TierFree},
		{name: "free", lic: core.LicenseConfig{Tier: "free", Key: "k"}, want: TierFree},
		{name: "premium without key", lic: core.LicenseConfig{Tier: "premium"}, want: TierFree},
		{name: "premium", lic: core.LicenseConfig{Tier: "premium", Key: "k"}, want: TierPremium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewGate(&core.Config{License: tt.lic}).Tier; got != tt.want {
				t.Errorf("NewGate().Tier = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_Require(t *testing.T) {
	free := Gate{Tier: TierFree}
	premium := Gate{Tier: TierPremium}

	for _, f := range []Feature{Reporting, BulkExport, UnlimitedSets} {
		if err := free.Require(f); err != ErrPremiumRequired {
			t.Errorf("free.Require(%s) error = %v, want %v", f, err, ErrPremiumRequired)
		}
		if err := premium.Require(f); err != nil {
			t.Errorf("premium.Require(%s) unexpected error = %v", f, err)
		}
	}
	if !free.Allows(Feature("lead_capture")) {
		t.Error("free.Allows(lead_capture) = false, want true")
	}
}
