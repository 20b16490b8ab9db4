package server

import (
	"bufio"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/annotate-mcp/internal/config"
	"github.com/ironsheep/annotate-mcp/internal/store"
)

// newTestServer returns a server with default settings and a JSON store in a
// temporary directory, plus that directory.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	return newServerIn(t, dir), dir
}

func newServerIn(t *testing.T, dir string) *Server {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	st, err := store.NewJSONStore(filepath.Join(dir, "store"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(cfg, st, zerolog.Nop())
}

func TestNew(t *testing.T) {
	s, _ := newTestServer(t)
	assert.NotNil(t, s.cache)
	assert.NotNil(t, s.projects)
	assert.NotNil(t, s.sessions)
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{"string id", `{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`, "test-1", "tools/list"},
		{"number id", `{"jsonrpc":"2.0","id":42,"method":"ping"}`, float64(42), "ping"},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"initialize"}`, nil, "initialize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			require.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			assert.Equal(t, tt.wantID, req.ID)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, "2.0", req.JSONRPC)
		})
	}
}

func TestMCPResponse_OmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(&MCPResponse{JSONRPC: "2.0", ID: 1, Result: map[string]interface{}{}})
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"error"`)

	b, err = json.Marshal(&MCPResponse{JSONRPC: "2.0", ID: 1, Error: &MCPError{Code: -32601, Message: "nope"}})
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"result"`)
	assert.NotContains(t, string(b), `"data"`)
}

func TestHandleRequest_Initialize(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "annotate-mcp", info["name"])
	assert.Equal(t, Version, info["version"])
}

func TestHandleRequest_Routing(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	resp := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, 2, resp.ID)

	assert.Nil(t, s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}))

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "resources/list")

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 4, Method: "tools/list"})
	require.NotNil(t, resp)
	tools := resp.Result.(map[string]interface{})["tools"].([]Tool)
	assert.Len(t, tools, len(GetToolDefinitions()))
}

func TestHandleRequest_InvalidToolParams(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1,2]`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestServe(t *testing.T) {
	s, _ := newTestServer(t)
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{not json`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n")

	var out strings.Builder
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(in), &out))

	var responses []MCPResponse
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	for sc.Scan() {
		var resp MCPResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.Len(t, responses, 3)
	assert.Equal(t, float64(1), responses[0].ID)
	assert.Nil(t, responses[0].Error)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, -32700, responses[1].Error.Code)
	assert.Equal(t, float64(2), responses[2].ID)
}

func TestServe_Cancelled(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
