package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLintCommand(t *testing.T) {
	out, err := execute(t, "", "lint", "testdata/rules.yaml")
	require.NoError(t, err)
	assert.Equal(t, "testdata/rules.yaml: ok (3 rule sets, 2 routes)\n", out)

	out, err = execute(t, "", "--rules", "testdata/broken.yaml", "lint")
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "testdata/broken.yaml: ")
}

func TestLintCommandMissingFile(t *testing.T) {
	_, err := execute(t, "", "lint", "testdata/missing.yaml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRejected)
}

func TestCheckCommand(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		data := writeFile(t, "user.json", `{"name":"Alice","age":30,"email":"alice@example.com","extra":1}`)

		out, err := execute(t, "", "--rules", "testdata/rules.yaml", "check", "--set", "create-user", data)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":200,"data":{"name":"Alice","age":30,"email":"alice@example.com"}}`, out)
	})

	t.Run("rejected", func(t *testing.T) {
		out, err := execute(t, `{"name":"Al","age":12}`,
			"--rules", "testdata/rules.yaml", "check", "--set", "create-user", "-")
		assert.ErrorIs(t, err, errRejected)
		assert.JSONEq(t, `{"status":400,"message":[
			"name type is string, it should be at least 3 characters",
			"age type is number, it should be at least 18",
			"email is required"
		]}`, out)
	})

	t.Run("params coercion", func(t *testing.T) {
		out, err := execute(t, `{"id":"42"}`,
			"--rules", "testdata/rules.yaml", "check", "--set", "user-params", "--field", "params", "-")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":200,"data":{"id":42}}`, out)
	})

	t.Run("body fields are not coerced", func(t *testing.T) {
		out, err := execute(t, `{"id":"42"}`,
			"--rules", "testdata/rules.yaml", "check", "--set", "user-params", "-")
		assert.ErrorIs(t, err, errRejected)
		assert.JSONEq(t, `{"status":400,"message":["id should be a valid number"]}`, out)
	})

	t.Run("unknown rule set", func(t *testing.T) {
		_, err := execute(t, `{}`, "--rules", "testdata/rules.yaml", "check", "--set", "nope", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rule set nope not found")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := execute(t, `{}`, "--rules", "testdata/rules.yaml", "check", "--set", "search", "--field", "form", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown request field")
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := execute(t, "", "--rules", "testdata/rules.yaml", "check", "--set", "search", "testdata/missing.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read testdata/missing.json")
		assert.True(t, os.IsNotExist(errors.Cause(err)))
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := execute(t, `{`, "--rules", "testdata/rules.yaml", "check", "--set", "search", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode document")
	})
}

func TestConfigLoader(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		conf, err := newConfigLoader().Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", conf.Addr)
		assert.Equal(t, "rules.yaml", conf.Rules)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, int64(1<<20), conf.MaxBodyBytes)
		assert.Equal(t, "/metrics", conf.MetricsPath)
		assert.True(t, conf.Watch)
		assert.Zero(t, conf.LogSampling)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("REQGUARD_ADDR", ":9090")
		t.Setenv("REQGUARD_MAX_BODY_BYTES", "2048")
		t.Setenv("REQGUARD_WATCH", "false")

		conf, err := newConfigLoader().Load()
		require.NoError(t, err)
		assert.Equal(t, ":9090", conf.Addr)
		assert.Equal(t, int64(2048), conf.MaxBodyBytes)
		assert.False(t, conf.Watch)
	})

	t.Run("config file and flags", func(t *testing.T) {
		path := writeFile(t, "reqguard.yaml", "rules: from-file.yaml\nrate-limit: 5\nlog-level: debug\n")

		l := newConfigLoader()
		cmd := &cobra.Command{Use: "reqguard"}
		l.bindPersistent(cmd)
		require.NoError(t, cmd.PersistentFlags().Set("config", path))
		require.NoError(t, cmd.PersistentFlags().Set("log-level", "warn"))

		conf, err := l.Load()
		require.NoError(t, err)
		assert.Equal(t, "from-file.yaml", conf.Rules)
		assert.InDelta(t, 5.0, conf.RateLimit, 0)
		assert.Equal(t, "warn", conf.LogLevel)
	})

	t.Run("missing config file", func(t *testing.T) {
		l := newConfigLoader()
		l.configFile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := l.Load()
		assert.Error(t, err)
	})
}
