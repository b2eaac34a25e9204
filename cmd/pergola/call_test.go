package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_StringsAndJSON(t *testing.T) {
	args, err := parseArgs([]string{"action=get", "id=42", "force:=true", "age:=36"})
	require.NoError(t, err)

	assert.Equal(t, "get", args["action"])
	assert.Equal(t, "42", args["id"])
	assert.Equal(t, true, args["force"])
	assert.Equal(t, float64(36), args["age"])
}

func TestParseArgs_PlainStrings(t *testing.T) {
	args, err := parseArgs([]string{"name=Grace Hopper"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", args["name"])
}

func TestParseArgs_RejectsMalformedPair(t *testing.T) {
	_, err := parseArgs([]string{"novalue"})
	require.Error(t, err)

	_, err = parseArgs([]string{"=orphan"})
	require.Error(t, err)

	_, err = parseArgs([]string{"bad:=not-json"})
	require.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pergola:", cfg.Redis.Prefix)
}
