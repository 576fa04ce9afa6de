package server

import (
	"log/slog"
	"net/http"

	"github.com/save2win/save2win-front/internal/gateway"
	jsonwriter "github.com/save2win/save2win-front/internal/json"
	"github.com/save2win/save2win-front/internal/log"
	"github.com/save2win/save2win-front/internal/session"
)

// GatewayPaths maps relay routes onto engine paths
type GatewayPaths struct {
	GameState string
	Refresh   string
}

// GatewayHandlers exposes the engine through the gateway
type GatewayHandlers struct {
	gateway    *gateway.Gateway
	sessions   *session.Store
	projection gateway.Projection
	paths      GatewayPaths
	allowlist  *gateway.Allowlist
}

// NewGatewayHandlers creates gateway handlers. A nil projection passes
// payloads through unchanged.
func NewGatewayHandlers(gw *gateway.Gateway, sessions *session.Store, projection gateway.Projection, paths GatewayPaths, allowlist *gateway.Allowlist) *GatewayHandlers {
	if projection == nil {
		projection = gateway.Identity{}
	}
	return &GatewayHandlers{
		gateway:    gw,
		sessions:   sessions,
		projection: projection,
		paths:      paths,
		allowlist:  allowlist,
	}
}

// GameStateHandler serves GET (read) and POST (refresh) of the game state
func (h *GatewayHandlers) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	enginePath := h.paths.GameState
	if r.Method == http.MethodPost {
		enginePath = h.paths.Refresh
	}
	h.forward(w, r, enginePath, h.projection)
}

// EngineHandler is the allowlisted pass-through; it never reshapes
func (h *GatewayHandlers) EngineHandler(w http.ResponseWriter, r *http.Request) {
	enginePath := "/" + r.PathValue("path")
	if !h.allowlist.Allows(enginePath) {
		log.LogCtx(r.Context(), slog.LevelInfo, "gateway", "Engine path not allowed", map[string]any{
			"path": enginePath,
		})
		jsonwriter.WriteForbidden(w, "path not allowed")
		return
	}
	h.forward(w, r, enginePath, gateway.Identity{})
}

func (h *GatewayHandlers) forward(w http.ResponseWriter, r *http.Request, enginePath string, projection gateway.Projection) {
	ctx := r.Context()
	credential, _ := gateway.ResolveCredential(r, h.sessions)

	body, err := h.gateway.Forward(ctx, gateway.Request{
		Method:     r.Method,
		Path:       enginePath,
		Query:      r.URL.Query(),
		Credential: credential,
		RequestID:  log.RequestID(ctx),
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	out, err := projection.Project(body)
	if err != nil {
		writeGatewayError(w, &gateway.Error{Kind: gateway.KindInternal, Details: "failed to reshape engine payload", Err: err})
		return
	}
	_ = jsonwriter.WriteResponse(w, http.StatusOK, out)
}

// writeGatewayError renders a gateway failure as {"error","details"}
func writeGatewayError(w http.ResponseWriter, err error) {
	gerr := gateway.AsError(err)
	if gerr.Kind == gateway.KindUnauthenticated {
		jsonwriter.WriteUnauthenticated(w, "save2win", gerr.Details)
		return
	}
	jsonwriter.WriteError(w, gerr.HTTPStatus(), string(gerr.Kind), gerr.Details)
}
