package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityWeightOrdering(t *testing.T) {
	assert.Greater(t, SeverityWeight(SeverityCritical), SeverityWeight(SeverityHigh))
	assert.Greater(t, SeverityWeight(SeverityHigh), SeverityWeight(SeverityMedium))
	assert.Greater(t, SeverityWeight(SeverityMedium), SeverityWeight(SeverityLow))
	assert.Equal(t, 0, SeverityWeight("unknown"))
}

func TestIsValidViolationType(t *testing.T) {
	for _, v := range []string{ViolationTypeSize, ViolationTypeLocation, ViolationTypeStructural, ViolationTypeContent} {
		assert.True(t, IsValidViolationType(v))
	}
	assert.False(t, IsValidViolationType("noise"))
	assert.False(t, IsValidViolationType(""))
}
