package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/cmd/instancectl/handlers"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "instancectl", cmd.Use)

	for _, name := range []string{"backend", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "table", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}
	for _, expected := range []string{"allocate", "delete", "find", "status", "version", "completion"} {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
}

func TestAllocate_Flags(t *testing.T) {
	cmd := Allocate(&handlers.Options{})

	tmpl := cmd.Flags().Lookup("template")
	require.NotNil(t, tmpl)
	assert.Equal(t, "t", tmpl.Shorthand)
	_, required := tmpl.Annotations["cobra_annotation_bash_completion_one_required_flag"]
	assert.True(t, required)

	assert.NotNil(t, cmd.Flags().Lookup("min-count"))
	assert.NotNil(t, cmd.Flags().Lookup("count"))
}

func TestAllocate_MinCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unset requires all", args: nil, want: -1},
		{name: "explicit zero is kept", args: []string{"--min-count", "0"}, want: 0},
		{name: "explicit value", args: []string{"--min-count=2"}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Allocate(&handlers.Options{})
			require.NoError(t, cmd.ParseFlags(tt.args))
			value, err := cmd.Flags().GetInt("min-count")
			require.NoError(t, err)
			assert.Equal(t, tt.want, minCount(cmd, value))
		})
	}
}

func TestDelete_Flags(t *testing.T) {
	cmd := Delete(&handlers.Options{})

	yes := cmd.Flags().Lookup("yes")
	require.NotNil(t, yes)
	assert.Equal(t, "y", yes.Shorthand)
	assert.Equal(t, "false", yes.DefValue)
}

func TestCommands_RequireIDs(t *testing.T) {
	for _, name := range []string{"delete", "find", "status"} {
		t.Run(name, func(t *testing.T) {
			cmd := Root()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{name})
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "requires at least 1 arg")
		})
	}
}

func TestAllocate_MissingTemplate(t *testing.T) {
	cmd := Root()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"allocate", "a1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "template" not set`)
}

func TestVersion(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer SetVersionInfo(origVersion, origCommit, origDate)
	SetVersionInfo("v1.2.3", "abc123", "2026-01-01")

	var out bytes.Buffer
	cmd := Root()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "instancectl v1.2.3\n  commit: abc123\n  built:  2026-01-01\n", out.String())
}

func TestCompletion(t *testing.T) {
	var out bytes.Buffer
	cmd := Root()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"completion", "bash"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "instancectl")

	cmd = Root()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, cmd.Execute())
}
