package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransport(t *testing.T) {
	assert.NoError(t, validateTransport("stdio"))
	assert.NoError(t, validateTransport("streamable-http"))

	err := validateTransport("sse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type: sse")
}

func TestServe_RejectsUnknownTransport(t *testing.T) {
	newCLIEnv(t)

	_, stderr, code := runCmd(t, "", "serve", "--transport", "carrier-pigeon")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported transport type")
}

func TestApplyMetricsEnv(t *testing.T) {
	t.Run("env fills unset flags", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("METRICS_ADDR", ":9191")

		cmd := newServeCmd(&globalOptions{})
		so := &serveOptions{metricsEnabled: true, metricsAddr: ":9090"}
		applyMetricsEnv(cmd, so)

		assert.False(t, so.metricsEnabled)
		assert.Equal(t, ":9191", so.metricsAddr)
	})

	t.Run("flags win over env", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("METRICS_ADDR", ":9191")

		cmd := newServeCmd(&globalOptions{})
		require.NoError(t, cmd.Flags().Set("metrics-enabled", "true"))
		require.NoError(t, cmd.Flags().Set("metrics-addr", ":9292"))
		so := &serveOptions{metricsEnabled: true, metricsAddr: ":9292"}
		applyMetricsEnv(cmd, so)

		assert.True(t, so.metricsEnabled)
		assert.Equal(t, ":9292", so.metricsAddr)
	})

	t.Run("invalid bool is ignored", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "maybe")
		t.Setenv("METRICS_ADDR", "")

		cmd := newServeCmd(&globalOptions{})
		so := &serveOptions{metricsEnabled: true, metricsAddr: ":9090"}
		applyMetricsEnv(cmd, so)

		assert.True(t, so.metricsEnabled)
		assert.Equal(t, ":9090", so.metricsAddr)
	})
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := map[string]string{
		"mailgate_send_email":     "Outbound Tools",
		"mailgate_list_pending":   "Outbound Tools",
		"mailgate_approve":        "Outbound Tools",
		"mailgate_reject":         "Outbound Tools",
		"mailgate_screen_inbound": "Inbound Tools",
		"mailgate_gmail_auth_url": "Provider Tools",
		"mailgate_unknown":        "Other",
		"gmail_send_email":        "Other",
		"":                        "Other",
	}
	for name, want := range tests {
		assert.Equal(t, want, getCategoryFromToolName(name), name)
	}
}

func TestBuildToolsMarkdown(t *testing.T) {
	markdown, err := buildToolsMarkdown()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(markdown, "# MCP Tools Reference"))
	assert.Contains(t, markdown, "- [Inbound Tools](#inbound-tools)")
	assert.Contains(t, markdown, "- [Outbound Tools](#outbound-tools)")
	assert.Contains(t, markdown, "- [Provider Tools](#provider-tools)")
	for _, tool := range []string{"mailgate_send_email", "mailgate_list_pending", "mailgate_screen_inbound", "mailgate_approve", "mailgate_reject", "mailgate_gmail_auth_url", "mailgate_gmail_save_code"} {
		assert.Contains(t, markdown, "### "+tool+"\n")
	}
	assert.Contains(t, markdown, "- `to` (required):")
}

func TestGenerateDocs_WritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tools.md")

	_, stderr, code := runCmd(t, "", "generate-docs", "--output", out)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Documentation written to: "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mailgate_screen_inbound")
}
