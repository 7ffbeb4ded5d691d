package auth

import "context"

// Viewer is the identity a request acts as. The zero value is anonymous.
type Viewer struct {
	identity      Identity
	authenticated bool
}

// Anonymous returns a viewer with no identity.
func Anonymous() Viewer {
	return Viewer{}
}

// Authenticated returns a viewer acting as id.
func Authenticated(id Identity) Viewer {
	return Viewer{identity: id, authenticated: true}
}

// Identity returns the viewer's identity and whether one is present.
func (v Viewer) Identity() (Identity, bool) {
	return v.identity, v.authenticated
}

// IsAuthenticated reports whether the viewer carries a verified identity.
func (v Viewer) IsAuthenticated() bool {
	return v.authenticated
}

// UserID returns the authenticated user's ID, or "" for anonymous viewers.
func (v Viewer) UserID() string {
	return v.identity.UserID
}

type viewerKey struct{}

// WithViewer attaches v to ctx.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the viewer stored in ctx, or an anonymous viewer.
func ViewerFrom(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
