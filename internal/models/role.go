package models

import "strings"

// Role is a user's role_type. The closed set below covers the canonical
// role-holders; departments may introduce additional free-form tags.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSecretary    Role = "secretary"
	RoleHeadOfOffice Role = "head_of_Office"
)

// Equals compares two roles exactly, case-sensitively. This is the
// comparison used for authorization checks between a caller-declared
// role and a stored role_type.
func (r Role) Equals(other Role) bool {
	return string(r) == string(other)
}

// MatchesTag compares the role against a department tag
// case-insensitively. This is the comparison used for audience
// selection and tag-based write authorization.
func (r Role) MatchesTag(tag string) bool {
	return strings.EqualFold(string(r), tag)
}

// MatchesAnyTag reports whether the role matches at least one of the
// given tags, case-insensitively.
func (r Role) MatchesAnyTag(tags []string) bool {
	for _, tag := range tags {
		if r.MatchesTag(tag) {
			return true
		}
	}
	return false
}
