package security

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", ExtractToken(r, nil))

	r.Header.Set("token", "from-header")
	assert.Equal(t, "from-header", ExtractToken(r, nil))

	r.Header.Set("Authorization", "Bearer  from-bearer ")
	assert.Equal(t, "from-bearer", ExtractToken(r, nil))

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", ExtractToken(r, nil))
}
