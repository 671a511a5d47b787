package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefault(t *testing.T) {
	t.Run("Should return the variable when set", func(t *testing.T) {
		t.Setenv("TASKMIND_TEST_VALUE", "custom")
		assert.Equal(t, "custom", EnvOrDefault("TASKMIND_TEST_VALUE", "fallback"))
	})

	t.Run("Should fall back when empty", func(t *testing.T) {
		t.Setenv("TASKMIND_TEST_VALUE", "")
		assert.Equal(t, "fallback", EnvOrDefault("TASKMIND_TEST_VALUE", "fallback"))
	})
}

func TestEnvOrDefaultInt(t *testing.T) {
	t.Run("Should parse a numeric variable", func(t *testing.T) {
		t.Setenv("TASKMIND_SESSION_TTL", "72")
		assert.Equal(t, 72, EnvOrDefaultInt("TASKMIND_SESSION_TTL", 24))
	})

	t.Run("Should fall back when unset or malformed", func(t *testing.T) {
		t.Setenv("TASKMIND_SESSION_TTL", "")
		assert.Equal(t, 24, EnvOrDefaultInt("TASKMIND_SESSION_TTL", 24))

		t.Setenv("TASKMIND_SESSION_TTL", "one day")
		assert.Equal(t, 24, EnvOrDefaultInt("TASKMIND_SESSION_TTL", 24))
	})
}
