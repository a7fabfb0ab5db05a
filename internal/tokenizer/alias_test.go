package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenPrefix_MapsKnownAliasesAndPassesThroughUnknown(t *testing.T) {
	assert.Equal(t, "PATIENT", tokenPrefix("PERSON"))
	assert.Equal(t, "DATE", tokenPrefix("DATE_TIME"))
	assert.Equal(t, "EMAIL", tokenPrefix("EMAIL_ADDRESS"))
	assert.Equal(t, "PHONE", tokenPrefix("PHONE_NUMBER"))
	assert.Equal(t, "IP", tokenPrefix("IP_ADDRESS"))
	assert.Equal(t, "MRN", tokenPrefix("MRN"))
	assert.Equal(t, "SECRET_KEY", tokenPrefix("SECRET_KEY"))
}
