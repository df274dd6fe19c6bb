package authnego

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCreateInput(t *testing.T) {
	assert.NoError(t, validateCreateInput("host.example.com", "cifs"))
	assert.Error(t, validateCreateInput("", "cifs"))
	assert.Error(t, validateCreateInput("host.example.com", ""))
	assert.Error(t, validateCreateInput("host.example.com", "cifs over tcp"))
	assert.Error(t, validateCreateInput(strings.Repeat("a", 256), "cifs"))
}
