package hostutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHost(t *testing.T) {
	for _, ok := range []string{"127.0.0.1", "0.0.0.0", "::1", "[::1]", "localhost", "redis-1.internal"} {
		assert.NoError(t, ValidateHost(ok), ok)
	}
	for _, bad := range []string{"", "256.0.0.1", "1.2.3.", "-bad.host", "under_score", "::ffff:1.2.3.4x"} {
		assert.Error(t, ValidateHost(bad), bad)
	}
}

func TestValidateHostPort(t *testing.T) {
	assert.NoError(t, ValidateHostPort("localhost:6379"))
	assert.NoError(t, ValidateHostPort("[::1]:6379"))
	assert.Error(t, ValidateHostPort("localhost"))
	assert.Error(t, ValidateHostPort("localhost:0"))
	assert.Error(t, ValidateHostPort("bad_host:6379"))
}
