package agent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"agent.yaml", FormatYAML, false},
		{"agent.YML", FormatYAML, false},
		{"dir/agent.toml", FormatTOML, false},
		{"agent.json", FormatJSON, false},
		{"agent.ini", "", true},
		{"agent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFile(t *testing.T) {
	want := AgentConfig{
		RepoOwner:       "octocat",
		RepoName:        "site",
		Branch:          DefaultBranch,
		WebsiteURL:      "https://example.com",
		AgentName:       "seo-bot",
		ScheduleMinutes: "60",
	}

	files := map[string]string{
		"agent.yaml": `repo_owner: octocat
repo_name: site
website_url: https://example.com
agent_name: seo-bot
schedule_minutes: "60"
`,
		"agent.toml": `repo_owner = "octocat"
repo_name = "site"
website_url = "https://example.com"
agent_name = "seo-bot"
schedule_minutes = "60"
`,
		"agent.json": `{
  "repo_owner": "octocat",
  "repo_name": "site",
  "website_url": "https://example.com",
  "agent_name": "seo-bot",
  "schedule_minutes": "60"
}`,
	}

	dir := t.TempDir()
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))

			got, err := LoadFile(path)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("LoadFile(%s) mismatch (-want +got):\n%s", name, diff)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse agent config")
}

func TestWriteFile_RoundTrip(t *testing.T) {
	cfg := AgentConfig{
		Token:             classicToken(),
		RepoOwner:         "octocat",
		RepoName:          "site",
		Branch:            "develop",
		WebsiteURL:        "https://example.com",
		AnalyticsProperty: "123",
		AgentName:         "seo-bot",
		ScheduleMinutes:   "30",
	}

	for _, ext := range []string{".yaml", ".toml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "agent"+ext)
			require.NoError(t, WriteFile(path, cfg))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(data), classicToken())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

			got, err := LoadFile(path)
			require.NoError(t, err)
			expected := cfg
			expected.Token = ""
			assert.Equal(t, expected, got)
		})
	}

	assert.Equal(t, classicToken(), cfg.Token, "WriteFile must not modify the caller's config")
}

func TestWriteFile_UnsupportedFormat(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "agent.ini"), AgentConfig{})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
