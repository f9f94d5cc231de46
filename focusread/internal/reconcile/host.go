package reconcile

import (
	"context"

	"github.com/hazyhaar/bionic/focusread/internal/typography"
	"github.com/hazyhaar/bionic/focusread/internal/walker"
)

// Host is a document the engine reconciles.
type Host interface {
	// Pass calls fn with the roots matching selector, in document order.
	// Host writes are held off until fn returns.
	Pass(ctx context.Context, selector string, fn func(roots []Root) error) error

	// Events delivers mutation and scroll triggers. It may return nil for
	// a static document.
	Events() <-chan Trigger

	// InjectFonts inserts the font stylesheet link once; a link with the
	// same id already present makes it a no-op.
	InjectFonts(ctx context.Context, id, href string) error
}

// Root is one response root, valid for the duration of a Pass callback.
type Root interface {
	HasMarker(ctx context.Context, marker string) (bool, error)
	ContainsTransformed(ctx context.Context) (bool, error)
	ClearMarker(ctx context.Context, marker string) error
	ApplyTypography(ctx context.Context, s typography.Settings) (bool, error)
	Process(ctx context.Context, opts walker.Options) (walker.Result, error)
	Restore(ctx context.Context, marker string) (int, error)
}
