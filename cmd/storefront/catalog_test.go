package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Storefront/internal/catalog"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogCmd_Table(t *testing.T) {
	out, err := runCLI(t, "catalog")
	require.NoError(t, err)

	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Lamp")
	assert.Contains(t, out, "$29.99")
	assert.Contains(t, out, "-20%")
}

func TestCatalogCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "catalog", "--json")
	require.NoError(t, err)

	var res catalog.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, catalog.StateReady, res.State)
	assert.Len(t, res.Products, len(catalog.SeedProducts()))
}

func TestCatalogCmd_UnreachableStore(t *testing.T) {
	t.Setenv("CONTENT_SOURCE", "http")
	t.Setenv("CONTENT_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("CONTENT_DATASET", "production")

	out, err := runCLI(t, "catalog")
	require.Error(t, err)
	assert.Contains(t, out, catalog.MsgFailed)
}
