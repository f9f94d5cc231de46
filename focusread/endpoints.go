package focusread

import (
	"context"

	"github.com/hazyhaar/bionic/focusread/internal/kit"
	"github.com/hazyhaar/bionic/focusread/internal/settings"
)

// textRequest carries text plus optional per-call settings overrides.
type textRequest struct {
	Text string `json:"text"`
	settings.Patch
}

type transformResponse struct {
	HTML string `json:"html"`
}

type rescanResponse struct {
	Queued bool `json:"queued"`
}

// endpoints are shared by the HTTP routes and the MCP tools.
type endpoints struct {
	transform     kit.Endpoint
	preview       kit.Endpoint
	settingsGet   kit.Endpoint
	settingsSet   kit.Endpoint
	settingsReset kit.Endpoint
	stats         kit.Endpoint
	rescan        kit.Endpoint
}

func (r *Reader) endpoints() endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(r.logger, name))(ep)
	}
	return endpoints{
		transform: wrap("transform", func(ctx context.Context, req any) (any, error) {
			in := req.(*textRequest)
			return transformResponse{HTML: r.Transform(ctx, in.Text, in.Patch)}, nil
		}),
		preview: wrap("preview", func(ctx context.Context, req any) (any, error) {
			in := req.(*textRequest)
			return r.Preview(ctx, in.Text, in.Patch), nil
		}),
		settingsGet: wrap("settings_get", func(ctx context.Context, _ any) (any, error) {
			return r.Settings(ctx), nil
		}),
		settingsSet: wrap("settings_set", func(ctx context.Context, req any) (any, error) {
			return r.UpdateSettings(ctx, *req.(*settings.Patch))
		}),
		settingsReset: wrap("settings_reset", func(ctx context.Context, _ any) (any, error) {
			return r.ResetSettings(ctx)
		}),
		stats: wrap("stats", func(context.Context, any) (any, error) {
			return r.Stats(), nil
		}),
		rescan: wrap("rescan", func(context.Context, any) (any, error) {
			return rescanResponse{Queued: r.Rescan()}, nil
		}),
	}
}
