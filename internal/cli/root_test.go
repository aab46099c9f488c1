package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t, []string{"serve", "worker", "migrate"}, names)
}

func TestMigrateForceRejectsNonNumericVersion(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "force", "latest"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid version "latest"`)
}

func TestMigrateForceRequiresVersion(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"migrate", "force"})

	assert.Error(t, cmd.Execute())
}

func TestServeFailsWithoutTokenSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AUTH_TOKEN_SECRET", "")
	t.Setenv("TOKEN_SECRET", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.token_secret")
}
