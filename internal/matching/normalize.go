// Package matching centralizes text normalization and fuzzy matching utilities
// shared by the identity resolver, the ICP scoring engine, and the filter
// query builder.
package matching

import "strings"

// NormalizeEmail normalizes an email address by lowercasing and trimming whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName normalizes a contact name by lowercasing and trimming whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeCompany normalizes a company name by lowercasing and trimming whitespace.
func NormalizeCompany(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}
