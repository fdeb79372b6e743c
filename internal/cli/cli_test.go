package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"dev", "dev"},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatVersion(tc.in), "input %q", tc.in)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"run", "console", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestConfigFlagDefault(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, defaultConfigPath, f.DefValue)
}

func TestVersionShort(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2026-01-01")
	t.Cleanup(func() {
		SetVersionInfo("dev", "none", "unknown")
		versionShort = false
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--short"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "1.0.0\n", buf.String())
}
