package icp

// MatchType classifies a contact's fit against a project ICP.
type MatchType string

const (
	// MatchImported marks contacts already linked to the project. They are
	// never displaced by scored candidates.
	MatchImported MatchType = "imported"
	MatchExact    MatchType = "exact"
	MatchGood     MatchType = "good"
	MatchSimilar  MatchType = "similar"
	MatchLoose    MatchType = "loose"
)

// Percentage thresholds for tier classification.
const (
	exactThreshold   = 80
	goodThreshold    = 50
	similarThreshold = 30
)

// TierFor classifies a match percentage into a tier.
func TierFor(percentage float64) MatchType {
	switch {
	case percentage >= exactThreshold:
		return MatchExact
	case percentage >= goodThreshold:
		return MatchGood
	case percentage >= similarThreshold:
		return MatchSimilar
	default:
		return MatchLoose
	}
}

// TierRank orders tiers for result sorting: imported < exact < good <
// similar < loose.
func TierRank(t MatchType) int {
	switch t {
	case MatchImported:
		return 0
	case MatchExact:
		return 1
	case MatchGood:
		return 2
	case MatchSimilar:
		return 3
	default:
		return 4
	}
}
