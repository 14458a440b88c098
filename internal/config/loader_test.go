package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvUsesSetVariable(t *testing.T) {
	t.Setenv("SEARXNG_URL", "http://searx.internal:8080")

	got := expandEnv("base_url: ${SEARXNG_URL:http://localhost:8888}")

	assert.Equal(t, "base_url: http://searx.internal:8080", got)
}

func TestExpandEnvFallsBackToDefault(t *testing.T) {
	got := expandEnv("base_url: ${UNSET_SEARXNG_URL_FOR_TEST:http://localhost:8888}")

	assert.Equal(t, "base_url: http://localhost:8888", got)
}

func TestExpandEnvEmptyDefault(t *testing.T) {
	got := expandEnv("api_key: ${UNSET_API_KEY_FOR_TEST:}")

	assert.Equal(t, "api_key: ", got)
}

func TestExpandEnvNoDefaultKeepsPlaceholder(t *testing.T) {
	got := expandEnv("value: ${UNSET_PLAIN_VAR_FOR_TEST}")

	assert.Equal(t, "value: ${UNSET_PLAIN_VAR_FOR_TEST}", got)
}

func TestExpandEnvMultiplePlaceholders(t *testing.T) {
	t.Setenv("TEST_HOST", "redis.internal")

	got := expandEnv("addr: ${TEST_HOST:localhost}:${TEST_PORT_UNSET:6379}")

	assert.Equal(t, "addr: redis.internal:6379", got)
}
