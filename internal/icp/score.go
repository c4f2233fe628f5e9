// Package icp implements the ideal-customer-profile match-scoring engine:
// a weighted multi-factor score per contact with itemized reasons and tier
// classification. Scoring is pure; results are computed fresh per request and
// never cached.
package icp

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Vaibhav5418/leadgen-backend/internal/matching"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"
)

// Criterion weights. They sum to 100 when every criterion is present in the
// ICP; only present criteria contribute to the maximum.
const (
	WeightIndustries  = 30
	WeightJobTitles   = 25
	WeightCompanySize = 20
	WeightGeographies = 15
	WeightKeywords    = 10
)

// Reason explains one matched criterion, strongest first.
type Reason struct {
	Type    string   `json:"type"`
	Weight  int      `json:"weight"`
	Matched []string `json:"matched,omitempty"`
	Message string   `json:"message"`
}

// MatchedCriteria itemizes which ICP criteria a contact satisfied.
type MatchedCriteria struct {
	Industries  []string `json:"industries,omitempty"`
	JobTitles   []string `json:"job_titles,omitempty"`
	CompanySize bool     `json:"company_size"`
	Geographies []string `json:"geographies,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// MatchResult is the per-contact scoring outcome. Score is the rounded match
// percentage 0..100; RawScore and MaxScore expose the underlying weighted
// points for auditability.
type MatchResult struct {
	ContactID       string          `json:"contact_id"`
	Score           int             `json:"score"`
	RawScore        float64         `json:"raw_score"`
	MaxScore        int             `json:"max_score"`
	MatchType       MatchType       `json:"match_type"`
	MatchedCriteria MatchedCriteria `json:"matched_criteria"`
	Reasons         []Reason        `json:"recommendation_reasons,omitempty"`
}

// ImportedResult builds the fixed result for a contact already linked to the
// project: full score, imported tier, no criteria breakdown.
func ImportedResult(contactID string) MatchResult {
	return MatchResult{
		ContactID: contactID,
		Score:     100,
		MatchType: MatchImported,
	}
}

// Score computes the weighted ICP match for one contact. An ICP with no
// present criteria cannot score anything; the result is 0 and the loose tier.
func Score(contact repository.Contact, def repository.ICPDefinition) MatchResult {
	result := MatchResult{ContactID: contact.ID}

	var raw float64
	var max int

	if len(def.TargetIndustries) > 0 {
		max += WeightIndustries
		matched := matchAnyField(contact.Industry, def.TargetIndustries)
		if len(matched) > 0 {
			raw += WeightIndustries
			result.MatchedCriteria.Industries = matched
			result.Reasons = append(result.Reasons, Reason{
				Type:    "industry",
				Weight:  WeightIndustries,
				Matched: matched,
				Message: fmt.Sprintf("Industry matches target: %s", strings.Join(matched, ", ")),
			})
		}
	}

	if len(def.TargetJobTitles) > 0 {
		max += WeightJobTitles
		matched := matchAnyField(contact.Title, def.TargetJobTitles)
		if len(matched) > 0 {
			raw += WeightJobTitles
			result.MatchedCriteria.JobTitles = matched
			result.Reasons = append(result.Reasons, Reason{
				Type:    "job_title",
				Weight:  WeightJobTitles,
				Matched: matched,
				Message: fmt.Sprintf("Job title matches target: %s", strings.Join(matched, ", ")),
			})
		}
	}

	if def.HasSizeCriterion() {
		max += WeightCompanySize
		if size, ok := ParseMaxEmployeeCount(contact.Employees); ok &&
			size >= def.CompanySizeMin && size <= def.CompanySizeMax {
			raw += WeightCompanySize
			result.MatchedCriteria.CompanySize = true
			result.Reasons = append(result.Reasons, Reason{
				Type:   "company_size",
				Weight: WeightCompanySize,
				Message: fmt.Sprintf("Company size %d within target range %d-%d",
					size, def.CompanySizeMin, def.CompanySizeMax),
			})
		}
	}

	if len(def.Geographies) > 0 {
		max += WeightGeographies
		matched := matchGeographies(contact, def.Geographies)
		if len(matched) > 0 {
			raw += WeightGeographies
			result.MatchedCriteria.Geographies = matched
			result.Reasons = append(result.Reasons, Reason{
				Type:    "geography",
				Weight:  WeightGeographies,
				Matched: matched,
				Message: fmt.Sprintf("Located in target geography: %s", strings.Join(matched, ", ")),
			})
		}
	}

	if len(def.Keywords) > 0 {
		max += WeightKeywords
		matched := matchKeywords(contact.Keywords, def.Keywords)
		if len(matched) > 0 {
			// Keywords earn partial credit proportional to coverage.
			raw += WeightKeywords * float64(len(matched)) / float64(len(def.Keywords))
			result.MatchedCriteria.Keywords = matched
			result.Reasons = append(result.Reasons, Reason{
				Type:    "keywords",
				Weight:  WeightKeywords,
				Matched: matched,
				Message: fmt.Sprintf("Matches %d of %d target keywords: %s",
					len(matched), len(def.Keywords), strings.Join(matched, ", ")),
			})
		}
	}

	result.RawScore = raw
	result.MaxScore = max

	var percentage float64
	if max > 0 {
		percentage = 100 * raw / float64(max)
	}
	result.Score = int(math.Round(percentage))
	result.MatchType = TierFor(percentage)

	sort.SliceStable(result.Reasons, func(i, j int) bool {
		return result.Reasons[i].Weight > result.Reasons[j].Weight
	})

	return result
}

// matchAnyField returns the targets that contain or are contained by the
// contact field, ignoring case.
func matchAnyField(field string, targets []string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var matched []string
	for _, target := range targets {
		if matching.EitherContainsFold(field, target) {
			matched = append(matched, target)
		}
	}
	return matched
}

// matchGeographies checks all six location fields against each target
// geography.
func matchGeographies(contact repository.Contact, targets []string) []string {
	fields := []string{
		contact.City, contact.State, contact.Country,
		contact.CompanyCity, contact.CompanyState, contact.CompanyCountry,
	}
	var matched []string
	for _, target := range targets {
		for _, field := range fields {
			if matching.ContainsFold(field, target) {
				matched = append(matched, target)
				break
			}
		}
	}
	return matched
}

// matchKeywords returns the target keywords found in the contact's free-text
// keywords field.
func matchKeywords(keywords string, targets []string) []string {
	var matched []string
	for _, target := range targets {
		if matching.ContainsFold(keywords, target) {
			matched = append(matched, target)
		}
	}
	return matched
}
