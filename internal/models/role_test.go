package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleEqualsIsCaseSensitive(t *testing.T) {
	assert.True(t, RoleHeadOfOffice.Equals(Role("head_of_Office")))
	assert.False(t, RoleHeadOfOffice.Equals(Role("head_of_office")))
	assert.False(t, RoleAdmin.Equals(RoleSecretary))
}

func TestRoleMatchesTagIsCaseInsensitive(t *testing.T) {
	assert.True(t, RoleSecretary.MatchesTag("Secretary"))
	assert.True(t, RoleHeadOfOffice.MatchesTag("HEAD_OF_OFFICE"))
	assert.False(t, RoleSecretary.MatchesTag("head_of_Office"))
}

func TestRoleMatchesAnyTag(t *testing.T) {
	assert.True(t, RoleSecretary.MatchesAnyTag([]string{"admin", "SECRETARY"}))
	assert.False(t, RoleSecretary.MatchesAnyTag([]string{"admin"}))
	assert.False(t, RoleSecretary.MatchesAnyTag(nil))
}
