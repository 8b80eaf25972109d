package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("OPTS_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")

	assert.Equal(t, "console", First("text", "OPTS_LOG_FORMAT", "LOG_FORMAT"))
}

func TestFirstFallsBack(t *testing.T) {
	t.Setenv("OPTS_LOG_FORMAT", "  ")

	assert.Equal(t, "json", First("json", "OPTS_LOG_FORMAT", "OPTS_UNSET_FORMAT_KEY"))
}
