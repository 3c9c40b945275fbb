package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedRoleName(t *testing.T) {
	role, err := IsolatedRoleName(" Runner_7 ", "42")
	require.NoError(t, err)
	assert.Equal(t, "runner_7-42", role)

	_, err = IsolatedRoleName("", "42")
	assert.Error(t, err)
	_, err = IsolatedRoleName("runner", "  ")
	assert.Error(t, err)
	_, err = IsolatedRoleName("runner;drop", "1")
	assert.Error(t, err)
}

func TestWithIsolatedRole(t *testing.T) {
	got, err := WithIsolatedRole("postgres://admin:s3cret@db:5432/ccs?sslmode=disable", "runner-42")
	require.NoError(t, err)
	assert.Equal(t, "postgres://runner-42:s3cret@db:5432/ccs?sslmode=disable", got)

	got, err = WithIsolatedRole("postgresql://db/ccs", "runner-42")
	require.NoError(t, err)
	assert.Equal(t, "postgresql://runner-42@db/ccs", got)

	_, err = WithIsolatedRole("mysql://db/ccs", "runner-42")
	assert.Error(t, err)
	_, err = WithIsolatedRole("postgres://db:bad port/ccs", "runner-42")
	assert.Error(t, err)
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "postgres://runner-42:xxxxx@db/ccs", RedactDBURL("postgres://runner-42:s3cret@db/ccs"))
	assert.Equal(t, "<unparseable DB URL>", RedactDBURL("postgres://db:bad port/ccs"))
}
