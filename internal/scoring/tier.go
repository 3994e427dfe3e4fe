package scoring

type Tier string

const (
	TierDiamond  Tier = "Diamond"
	TierPlatinum Tier = "Platinum"
	TierGold     Tier = "Gold"
	TierSilver   Tier = "Silver"
	TierBronze   Tier = "Bronze"
)

// AllTiers is ordered best first.
var AllTiers = []Tier{TierDiamond, TierPlatinum, TierGold, TierSilver, TierBronze}

var tierCutoffs = []struct {
	minPercentile float64
	tier          Tier
}{
	{0.95, TierDiamond},
	{0.85, TierPlatinum},
	{0.70, TierGold},
	{0.50, TierSilver},
}

// ClassifyTier maps a 1-based rank within totalUsers to a tier via the
// percentile (totalUsers-rank+1)/totalUsers, so cutoffs move with the population.
func ClassifyTier(rank, totalUsers int) Tier {
	if totalUsers <= 0 {
		return TierBronze
	}
	percentile := float64(totalUsers-rank+1) / float64(totalUsers)
	for _, c := range tierCutoffs {
		if percentile >= c.minPercentile {
			return c.tier
		}
	}
	return TierBronze
}
