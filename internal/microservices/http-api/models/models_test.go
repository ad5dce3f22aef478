package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserRolePredicates(t *testing.T) {
	tests := []struct {
		name          string
		user          User
		wantUser      bool
		wantModerator bool
		wantAdmin     bool
		wantEffective Role
	}{
		{"PlainUser", User{Role: RoleUser}, true, false, false, RoleUser},
		{"Moderator", User{Role: RoleModerator}, false, true, false, RoleModerator},
		{"Admin", User{Role: RoleAdmin}, false, false, true, RoleAdmin},
		{"SuperuserWithUserRole", User{Role: RoleUser, IsSuperuser: true}, true, false, true, RoleAdmin},
		{"EmptyRoleDefaultsToUser", User{}, false, false, false, RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantUser, tt.user.IsUser())
			assert.Equal(t, tt.wantModerator, tt.user.IsModerator())
			assert.Equal(t, tt.wantAdmin, tt.user.IsAdmin())
			assert.Equal(t, tt.wantEffective, tt.user.EffectiveRole())
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("moderator")
	assert.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestBeforeCreate_SetsIDAndRole(t *testing.T) {
	u := &User{Username: "alice"}
	assert.NoError(t, u.BeforeCreate(nil))
	assert.Len(t, u.ID, 36)
	assert.Equal(t, RoleUser, u.Role)

	kept := &User{ID: "fixed", Role: RoleAdmin}
	assert.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed", kept.ID)
	assert.Equal(t, RoleAdmin, kept.Role)
}

func TestValidateYear(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateYear(2026, now))
	assert.NoError(t, ValidateYear(1895, now))
	assert.ErrorIs(t, ValidateYear(2027, now), ErrYearInFuture)
}

func TestValidateNotBlank(t *testing.T) {
	assert.NoError(t, ValidateNotBlank("fine"))
	assert.ErrorIs(t, ValidateNotBlank(""), ErrBlankText)
	assert.ErrorIs(t, ValidateNotBlank("  \n\t"), ErrBlankText)
}

func TestValidateScore(t *testing.T) {
	for _, s := range []int{1, 5, 10} {
		assert.NoError(t, ValidateScore(s))
	}
	for _, s := range []int{-1, 0, 11, 100} {
		assert.ErrorIs(t, ValidateScore(s), ErrScoreOutOfRange)
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice.b+c@d-e_f"))
	assert.ErrorIs(t, ValidateUsername("me"), ErrReservedUsername)
	assert.ErrorIs(t, ValidateUsername("bad name"), ErrInvalidUsername)
	assert.NoError(t, ValidateUsername("Me"))
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("sci-fi_2"))
	assert.ErrorIs(t, ValidateSlug("sci fi"), ErrInvalidSlug)
	assert.ErrorIs(t, ValidateSlug(""), ErrInvalidSlug)
}
