package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/record"
)

type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Kind    string           `json:"kind"`
		Total   int              `json:"total"`
		Skip    int              `json:"skip"`
		Limit   int              `json:"limit"`
		Records []map[string]any `json:"records"`
	} `json:"data"`
}

func runQueryJSON(t *testing.T, args ...string) queryResponse {
	t.Helper()
	out, err := executeCommand(t, append([]string{"query", "--format", "json"}, args...)...)
	require.NoError(t, err)
	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestQuery_Markets(t *testing.T) {
	dbPath := ingestSample(t)

	resp := runQueryJSON(t, "market", "--db", dbPath)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "market", resp.Data.Kind)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 30, resp.Data.Limit)
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, "5", resp.Data.Records[0]["marketid"])
	assert.NotContains(t, resp.Data.Records[0], "bidder")
}

func TestQuery_Filters(t *testing.T) {
	dbPath := ingestSample(t)

	resp := runQueryJSON(t, "market", "--db", dbPath, "--owner", "10,20", "--open")
	assert.Equal(t, 1, resp.Data.Total)

	resp = runQueryJSON(t, "market", "--db", dbPath, "--owner", "10,21")
	assert.Equal(t, 0, resp.Data.Total)
	assert.NotNil(t, resp.Data.Records)

	resp = runQueryJSON(t, "market", "--db", dbPath, "--bidder", "10,20")
	assert.Equal(t, 0, resp.Data.Total)

	resp = runQueryJSON(t, "position", "--db", dbPath, "--player", "10,20")
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, "5", resp.Data.Records[0]["object_index"])

	resp = runQueryJSON(t, "nugget", "--db", dbPath, "--ids", "100,101")
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, "100", resp.Data.Records[0]["id"])
}

func TestQuery_Paging(t *testing.T) {
	dbPath := ingestSample(t)

	resp := runQueryJSON(t, "nugget", "--db", dbPath, "--skip", "1")
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Skip)
	assert.Empty(t, resp.Data.Records)
}

func TestQuery_TextOutput(t *testing.T) {
	dbPath := ingestSample(t)

	out, err := executeCommand(t, "query", "position", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 1 position records (skip 0)")
	assert.Contains(t, out, record.PositionKey(10, 20, 5).String())
}

func TestQuery_InvalidInput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown_kind", []string{"query", "auction", "--db", dbPath}, "invalid kind"},
		{"bad_player", []string{"query", "position", "--db", dbPath, "--player", "10"}, "want pid1,pid2"},
		{"bad_ids", []string{"query", "nugget", "--db", dbPath, "--ids", "x"}, "ids"},
		{"owner_on_position", []string{"query", "position", "--db", dbPath, "--owner", "1,2"}, "owner filter does not apply"},
		{"open_on_nugget", []string{"query", "nugget", "--db", dbPath, "--open"}, "settled filter does not apply"},
		{"negative_skip", []string{"query", "nugget", "--db", dbPath, "--skip", "-1"}, "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
