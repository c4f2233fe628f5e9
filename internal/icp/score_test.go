package icp

import (
	"testing"

	"github.com/Vaibhav5418/leadgen-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDefinition() repository.ICPDefinition {
	return repository.ICPDefinition{
		TargetIndustries: []string{"SaaS"},
		TargetJobTitles:  []string{"CTO", "VP Engineering"},
		CompanySizeMin:   50,
		CompanySizeMax:   500,
		Geographies:      []string{"California"},
		Keywords:         []string{"devops"},
	}
}

func TestScoreFullMatch(t *testing.T) {
	contact := repository.Contact{
		ID:        "c1",
		Industry:  "B2B SaaS",
		Title:     "VP Engineering",
		Employees: "200-500",
		State:     "California",
		Keywords:  "devops, kubernetes",
	}

	result := Score(contact, fullDefinition())

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, MatchExact, result.MatchType)
	assert.Equal(t, 100, result.MaxScore)
	assert.InDelta(t, 100, result.RawScore, 0.001)
	assert.Equal(t, []string{"SaaS"}, result.MatchedCriteria.Industries)
	assert.Equal(t, []string{"VP Engineering"}, result.MatchedCriteria.JobTitles)
	assert.True(t, result.MatchedCriteria.CompanySize)
	assert.Equal(t, []string{"California"}, result.MatchedCriteria.Geographies)
	assert.Equal(t, []string{"devops"}, result.MatchedCriteria.Keywords)
}

func TestScoreEmptyContact(t *testing.T) {
	result := Score(repository.Contact{ID: "c2"}, fullDefinition())

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, MatchLoose, result.MatchType)
	assert.Empty(t, result.Reasons)
}

// With a single active criterion the percentage is binary: the one weighted
// rule either fires or it does not.
func TestScoreSingleCriterionIsBinary(t *testing.T) {
	def := repository.ICPDefinition{
		TargetIndustries: []string{"Fintech"},
		CompanySizeMin:   repository.DefaultCompanySizeMin,
		CompanySizeMax:   repository.DefaultCompanySizeMax,
	}

	hit := Score(repository.Contact{Industry: "Fintech Payments"}, def)
	assert.Equal(t, 30, hit.MaxScore)
	assert.Equal(t, 100, hit.Score)

	miss := Score(repository.Contact{Industry: "Retail"}, def)
	assert.Equal(t, 30, miss.MaxScore)
	assert.Equal(t, 0, miss.Score)
}

func TestScoreKeywordPartialCredit(t *testing.T) {
	def := repository.ICPDefinition{
		Keywords:       []string{"fintech", "payments", "api"},
		CompanySizeMin: repository.DefaultCompanySizeMin,
		CompanySizeMax: repository.DefaultCompanySizeMax,
	}
	contact := repository.Contact{Keywords: "fintech, api"}

	result := Score(contact, def)

	assert.InDelta(t, 6.67, result.RawScore, 0.01)
	assert.Equal(t, 10, result.MaxScore)
	assert.Equal(t, 67, result.Score)
	assert.Equal(t, MatchGood, result.MatchType)
	assert.Equal(t, []string{"fintech", "api"}, result.MatchedCriteria.Keywords)
}

func TestScoreDefaultSizeRangeIsNotACriterion(t *testing.T) {
	def := repository.ICPDefinition{
		CompanySizeMin: repository.DefaultCompanySizeMin,
		CompanySizeMax: repository.DefaultCompanySizeMax,
	}
	require.False(t, def.IsDefined())

	result := Score(repository.Contact{Employees: "100"}, def)
	assert.Equal(t, 0, result.MaxScore)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, MatchLoose, result.MatchType)
}

func TestScoreUnparseableSizeDoesNotMatch(t *testing.T) {
	def := repository.ICPDefinition{CompanySizeMin: 10, CompanySizeMax: 100}

	result := Score(repository.Contact{Employees: "no data"}, def)
	assert.Equal(t, 20, result.MaxScore)
	assert.Equal(t, 0, result.Score)
	assert.False(t, result.MatchedCriteria.CompanySize)
}

func TestScoreGeographyChecksAllLocationFields(t *testing.T) {
	def := repository.ICPDefinition{
		Geographies:    []string{"Texas"},
		CompanySizeMin: repository.DefaultCompanySizeMin,
		CompanySizeMax: repository.DefaultCompanySizeMax,
	}

	for _, contact := range []repository.Contact{
		{City: "Austin, Texas"},
		{State: "texas"},
		{Country: "USA (Texas)"},
		{CompanyCity: "Texas City"},
		{CompanyState: "TEXAS"},
		{CompanyCountry: "US - Texas"},
	} {
		result := Score(contact, def)
		assert.Equal(t, 100, result.Score)
	}
}

func TestScoreReasonsSortedByWeight(t *testing.T) {
	contact := repository.Contact{
		Industry: "SaaS",
		Keywords: "devops",
		State:    "California",
	}

	result := Score(contact, fullDefinition())

	require.Len(t, result.Reasons, 3)
	assert.Equal(t, "industry", result.Reasons[0].Type)
	assert.Equal(t, "geography", result.Reasons[1].Type)
	assert.Equal(t, "keywords", result.Reasons[2].Type)
	for i := 1; i < len(result.Reasons); i++ {
		assert.GreaterOrEqual(t, result.Reasons[i-1].Weight, result.Reasons[i].Weight)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		percentage float64
		expected   MatchType
	}{
		{100, MatchExact},
		{80, MatchExact},
		{79.9, MatchGood},
		{50, MatchGood},
		{49.9, MatchSimilar},
		{30, MatchSimilar},
		{29.9, MatchLoose},
		{0, MatchLoose},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TierFor(tt.percentage), "percentage %v", tt.percentage)
	}
}

func TestTierRankOrdering(t *testing.T) {
	assert.Less(t, TierRank(MatchImported), TierRank(MatchExact))
	assert.Less(t, TierRank(MatchExact), TierRank(MatchGood))
	assert.Less(t, TierRank(MatchGood), TierRank(MatchSimilar))
	assert.Less(t, TierRank(MatchSimilar), TierRank(MatchLoose))
}

func TestImportedResult(t *testing.T) {
	result := ImportedResult("c9")
	assert.Equal(t, "c9", result.ContactID)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, MatchImported, result.MatchType)
}
