package mcptools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/save2win/save2win-front/internal/gateway"
	"github.com/save2win/save2win-front/internal/session"
	"github.com/save2win/save2win-front/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *testutil.StubEngine) {
	t.Helper()
	engine := testutil.NewStubEngine()
	t.Cleanup(engine.Close)

	gw, err := gateway.New(gateway.Config{BaseURL: engine.URL, Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(gw.Close)

	return NewServer(Config{
		Gateway:          gw,
		Sessions:         session.NewStore(session.Config{}),
		Projection:       gateway.GameState{},
		GameStatePath:    "/api/v1/game-state",
		TransactionsPath: "/v1/context/transactions",
	}), engine
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestGameStateTool(t *testing.T) {
	s, engine := newTestServer(t)
	engine.Respond("/api/v1/game-state", testutil.EngineResponse{Body: `{"game":{"xp":9,"level":3}}`})

	ctx := withCredential(context.Background(), "artifact")
	res, err := s.handleGameState(ctx, toolRequest(ToolGameState, nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var state gateway.GameStateV1
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &state))
	assert.Equal(t, json.Number("9"), state.XP)
	assert.Equal(t, json.Number("3"), state.Level)
	assert.Equal(t, "Bearer artifact", engine.Calls()[0].Authorization)
}

func TestTransactionContextTool(t *testing.T) {
	s, engine := newTestServer(t)
	engine.Respond("/v1/context/transactions", testutil.EngineResponse{Body: `{"transactions":[]}`})

	ctx := withCredential(context.Background(), "artifact")
	res, err := s.handleTransactionContext(ctx, toolRequest(ToolTransactionContext, map[string]any{"account_id": "acc-1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"transactions":[]}`, resultText(t, res))
	assert.Equal(t, "account_id=acc-1", engine.Calls()[0].RawQuery)
}

func TestTransactionContextTool_MissingAccount(t *testing.T) {
	s, engine := newTestServer(t)

	res, err := s.handleTransactionContext(withCredential(context.Background(), "artifact"), toolRequest(ToolTransactionContext, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, 0, engine.CallCount())
}

func TestToolErrorsCarryKind(t *testing.T) {
	s, engine := newTestServer(t)
	engine.Respond("/api/v1/game-state", testutil.EngineResponse{Status: http.StatusForbidden})

	t.Run("no credential", func(t *testing.T) {
		res, err := s.handleGameState(context.Background(), toolRequest(ToolGameState, nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), `"error":"unauthenticated"`)
		assert.Equal(t, 0, engine.CallCount())
	})

	t.Run("engine rejects", func(t *testing.T) {
		res, err := s.handleGameState(withCredential(context.Background(), "artifact"), toolRequest(ToolGameState, nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), `"error":"upstream_unauthorized"`)
	})
}

func TestStreamableEndpointListsTools(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+EndpointPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf strings.Builder
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), ToolGameState)
	assert.Contains(t, buf.String(), ToolTransactionContext)
}
