package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleStudent.Can(CapViewOwnGrades))
	assert.False(t, RoleStudent.Can(CapViewJournal))
	assert.False(t, RoleStudent.Can(CapEditGrades))

	assert.True(t, RoleTeacher.Can(CapViewJournal))
	assert.True(t, RoleTeacher.Can(CapEditGrades))
	assert.False(t, RoleTeacher.Can(CapViewOwnGrades))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleTeacher.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}
