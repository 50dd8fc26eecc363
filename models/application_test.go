package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidApplicationStatus(t *testing.T) {
	for _, status := range ValidApplicationStatuses {
		assert.True(t, IsValidApplicationStatus(status), status)
	}

	// Case-insensitive
	assert.True(t, IsValidApplicationStatus("accepted"))
	assert.True(t, IsValidApplicationStatus("Reviewed"))
	assert.True(t, IsValidApplicationStatus("interviewing"))

	assert.False(t, IsValidApplicationStatus(""))
	assert.False(t, IsValidApplicationStatus("HIRED"))
	assert.False(t, IsValidApplicationStatus("ACCEPTED "))
}
