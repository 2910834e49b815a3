package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolateEnv_SubstitutesKnownVariable(t *testing.T) {
	t.Setenv("KGSEARCH_TEST_DSN", "postgres://example")
	out := interpolateEnv("dsn: ${KGSEARCH_TEST_DSN}")
	assert.Equal(t, "dsn: postgres://example", out)
}

func TestInterpolateEnv_LeavesUnsetVariableLiteral(t *testing.T) {
	os.Unsetenv("KGSEARCH_TEST_UNSET")
	out := interpolateEnv("dsn: ${KGSEARCH_TEST_UNSET}")
	assert.Equal(t, "dsn: ${KGSEARCH_TEST_UNSET}", out)
}

func TestInterpolateEnv_NoReferencesIsIdentity(t *testing.T) {
	out := interpolateEnv("host: localhost\nport: 8080")
	assert.Equal(t, "host: localhost\nport: 8080", out)
}
