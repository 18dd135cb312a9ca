package notice

// RenderContext carries render state for a single admin request. At most
// one partner notice is shown per request.
type RenderContext struct {
	showing string
}

// NewRenderContext creates the state for one request
func NewRenderContext() *RenderContext {
	return &RenderContext{}
}

// NoticeShowing reports whether a notice was already rendered in this request
func (rc *RenderContext) NoticeShowing() bool {
	return rc.showing != ""
}

// Showing returns the key of the rendered notice, if any
func (rc *RenderContext) Showing() string {
	return rc.showing
}

func (rc *RenderContext) markShowing(key string) {
	rc.showing = key
}
