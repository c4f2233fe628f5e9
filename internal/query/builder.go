// Package query translates user-facing filter parameters and ICP definitions
// into the predicate language the contact store understands.
package query

import (
	"github.com/Vaibhav5418/leadgen-backend/internal/matching"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// blankOrPlaceholderPattern matches empty, whitespace-only, and the literal
// placeholder values historically entered where data was missing. A field
// matching this pattern counts as absent.
const blankOrPlaceholderPattern = `^\s*(?:n/a|na|none|not available|no data|-)?\s*$`

// emailShapePattern is the basic local@domain.tld shape required for a value
// to count as a present email.
const emailShapePattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

// geoFields are the six location attributes searched by geography filters and
// the ICP candidate filter.
var geoFields = []string{"city", "state", "country", "companyCity", "companyState", "companyCountry"}

// ContactFilter carries the user-facing databank filter parameters. Nil
// presence flags mean "no constraint".
type ContactFilter struct {
	Category    string
	Location    string
	Company     string
	HasEmail    *bool
	HasPhone    *bool
	HasLinkedIn *bool
}

// Predicate translates the filter into a store predicate. Presence and
// absence are exact complements of each other: absence is the $nor of the
// presence predicate, so no value falls in the gap or the overlap.
func (f ContactFilter) Predicate() bson.M {
	var and []bson.M

	if f.Category != "" {
		if p := CategoryPredicate(f.Category); p != nil {
			and = append(and, p)
		}
	}

	if f.Location != "" {
		or := make([]bson.M, 0, len(geoFields))
		for _, field := range geoFields {
			or = append(or, bson.M{field: containsFold(f.Location)})
		}
		and = append(and, bson.M{"$or": or})
	}

	if f.Company != "" {
		and = append(and, bson.M{"company": containsFold(f.Company)})
	}

	if f.HasEmail != nil {
		and = append(and, presenceOrComplement(emailPresence(), *f.HasEmail))
	}
	if f.HasPhone != nil {
		and = append(and, presenceOrComplement(fieldPresence("phone"), *f.HasPhone))
	}
	if f.HasLinkedIn != nil {
		and = append(and, presenceOrComplement(fieldPresence("linkedinUrl"), *f.HasLinkedIn))
	}

	if len(and) == 0 {
		return bson.M{}
	}
	if len(and) == 1 {
		return and[0]
	}
	return bson.M{"$and": and}
}

// CategoryPredicate builds the lenient category predicate: the union of the
// ordered acceptable-match rules for the category name.
func CategoryPredicate(category string) bson.M {
	rules := matching.CategoryRules(category)
	if len(rules) == 0 {
		return nil
	}
	or := make([]bson.M, 0, len(rules))
	for _, rule := range rules {
		or = append(or, bson.M{"category": primitive.Regex{Pattern: rule.Pattern(), Options: "i"}})
	}
	return bson.M{"$or": or}
}

// ICPCandidateFilter builds the candidate-pool predicate for similar-contact
// scoring. Present criteria are joined with OR, never AND: matching any one
// criterion makes a contact a scoring candidate. Exclusion criteria apply as
// NOR across industry, company and keywords; already-linked contacts and the
// project's own contact email are excluded.
func ICPCandidateFilter(def repository.ICPDefinition, excludeContactIDs []string, excludeEmail string) bson.M {
	var or []bson.M

	for _, industry := range def.TargetIndustries {
		or = append(or, bson.M{"industry": containsFold(industry)})
	}
	for _, title := range def.TargetJobTitles {
		or = append(or, bson.M{"title": containsFold(title)})
	}
	if def.HasSizeCriterion() {
		// Size can only be judged after parsing; any non-empty descriptor is
		// a candidate.
		or = append(or, bson.M{"employees": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}})
	}
	for _, geo := range def.Geographies {
		for _, field := range geoFields {
			or = append(or, bson.M{field: containsFold(geo)})
		}
	}
	for _, keyword := range def.Keywords {
		or = append(or, bson.M{"keywords": containsFold(keyword)})
	}

	and := []bson.M{{"$or": or}}

	if len(def.ExclusionCriteria) > 0 {
		var nor []bson.M
		for _, exclusion := range def.ExclusionCriteria {
			pattern := containsFold(exclusion)
			nor = append(nor,
				bson.M{"industry": pattern},
				bson.M{"company": pattern},
				bson.M{"keywords": pattern},
			)
		}
		and = append(and, bson.M{"$nor": nor})
	}

	if len(excludeContactIDs) > 0 {
		and = append(and, bson.M{"_id": bson.M{"$nin": excludeContactIDs}})
	}
	if excludeEmail != "" {
		and = append(and, bson.M{"email": bson.M{"$not": anchoredFold(excludeEmail)}})
	}

	return bson.M{"$and": and}
}

// presenceOrComplement returns the presence predicate or its exact $nor
// complement.
func presenceOrComplement(presence bson.M, has bool) bson.M {
	if has {
		return presence
	}
	return bson.M{"$nor": []bson.M{presence}}
}

// fieldPresence matches documents where the field holds a real value: a
// string that is not blank, whitespace-only, or a known placeholder.
func fieldPresence(field string) bson.M {
	return bson.M{field: bson.M{
		"$exists": true,
		"$type":   "string",
		"$not":    primitive.Regex{Pattern: blankOrPlaceholderPattern, Options: "i"},
	}}
}

// emailPresence additionally requires the basic local@domain.tld shape. The
// shape excludes blanks and placeholders on its own.
func emailPresence() bson.M {
	return bson.M{"email": bson.M{
		"$exists": true,
		"$type":   "string",
		"$regex":  primitive.Regex{Pattern: emailShapePattern, Options: ""},
	}}
}

func containsFold(value string) primitive.Regex {
	return primitive.Regex{Pattern: matching.EscapePattern(value), Options: "i"}
}

func anchoredFold(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + matching.EscapePattern(value) + "$", Options: "i"}
}
