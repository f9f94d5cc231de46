package focusread

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/bionic/focusread/internal/kit"
	"github.com/hazyhaar/bionic/focusread/internal/settings"
	"github.com/hazyhaar/bionic/focusread/internal/shield"
)

// maxBody bounds request bodies on the settings surface.
const maxBody = 1 << 20

// Handler returns the HTTP surface: the settings routes plus, when srv is
// non-nil, the MCP streamable transport under /mcp.
func (r *Reader) Handler(srv *mcp.Server) http.Handler {
	rt := chi.NewRouter()
	rt.Use(middleware.Recoverer)
	rt.Use(middleware.RequestID)
	for _, mw := range shield.Stack(maxBody) {
		rt.Use(mw)
	}
	r.RegisterHTTP(rt)
	if srv != nil {
		rt.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	}
	return rt
}

// RegisterHTTP mounts the focusread routes on rt.
func (r *Reader) RegisterHTTP(rt chi.Router) {
	eps := r.endpoints()

	rt.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	rt.Route("/settings", func(rt chi.Router) {
		rt.Get("/", serve(eps.settingsGet, decodeNone))
		rt.Patch("/", serve(eps.settingsSet, decodeBody[settings.Patch]))
		rt.Delete("/", serve(eps.settingsReset, decodeNone))
	})
	rt.Post("/preview", serve(eps.preview, decodeBody[textRequest]))
	rt.Post("/transform", serve(eps.transform, decodeBody[textRequest]))
	rt.Get("/stats", serve(eps.stats, decodeNone))
	rt.Post("/rescan", serve(eps.rescan, decodeNone))
}

func serve(ep kit.Endpoint, decode func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		in, err := decode(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ctx := kit.WithTransport(req.Context(), "http")
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(ctx))
		out, err := ep(ctx, in)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func decodeNone(*http.Request) (any, error) { return nil, nil }

// decodeBody decodes a JSON body into a new T. An empty body is the zero T.
func decodeBody[T any](req *http.Request) (any, error) {
	var v T
	if err := json.NewDecoder(req.Body).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
