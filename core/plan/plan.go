// Package plan gates premium features.
package plan

import (
	"errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

type (
	Tier    string
	Feature string
)

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"

	Reporting     Feature = "reporting"
	BulkExport    Feature = "bulk_export"
	UnlimitedSets Feature = "unlimited_sets"

	// FreeSetLimit is the number of flashcard sets a free installation may hold.
	FreeSetLimit = 5
)

var ErrPremiumRequired = errors.New("this feature requires a premium license")

var premiumFeatures = map[Feature]bool{
	Reporting:     true,
	BulkExport:    true,
	UnlimitedSets: true,
}

type Gate struct {
	Tier Tier
}

// NewGate reads the license tier. A premium tier without a license key is downgraded to free.
func NewGate(conf *core.Config) Gate {
	if Tier(conf.License.Tier) == TierPremium && conf.License.Key != "" {
		return Gate{Tier: TierPremium}
	}
	return Gate{Tier: TierFree}
}

func (g Gate) IsPremium() bool { return g.Tier == TierPremium }

func (g Gate) Allows(f Feature) bool {
	return g.IsPremium() || !premiumFeatures[f]
}

// Require returns ErrPremiumRequired if f is not available.
func (g Gate) Require(f Feature) error {
	if !g.Allows(f) {
		return ErrPremiumRequired
	}
	return nil
}
