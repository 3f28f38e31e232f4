package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResultIdentityValidate(t *testing.T) {
	studentID := uuid.New()
	outsiderID := uuid.New()

	assert.NoError(t, ResultIdentity{StudentID: &studentID}.Validate())
	assert.NoError(t, ResultIdentity{OutsiderID: &outsiderID}.Validate())
	assert.Error(t, ResultIdentity{}.Validate(), "empty identity must be rejected")
	assert.Error(t, ResultIdentity{StudentID: &studentID, OutsiderID: &outsiderID}.Validate(),
		"both variants set must be rejected")
}

func TestResultIdentityEntityKey(t *testing.T) {
	studentID := uuid.New()
	outsiderID := uuid.New()

	sKey := ResultIdentity{StudentID: &studentID}.EntityKey()
	oKey := ResultIdentity{OutsiderID: &outsiderID}.EntityKey()

	assert.Equal(t, "s:"+studentID.String(), sKey)
	assert.Equal(t, "o:"+outsiderID.String(), oKey)
	assert.NotEqual(t, sKey, oKey)
	assert.Empty(t, ResultIdentity{}.EntityKey())
}
