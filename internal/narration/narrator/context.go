package narrator

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying n.
func NewContext(ctx context.Context, n *Narrator) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the narrator stored in ctx, if any.
func FromContext(ctx context.Context) (*Narrator, bool) {
	n, ok := ctx.Value(ctxKey{}).(*Narrator)
	return n, ok && n != nil
}

// MustFromContext returns the narrator stored in ctx and panics when there
// is none. A missing narrator is a wiring mistake, not a runtime condition.
func MustFromContext(ctx context.Context) *Narrator {
	n, ok := FromContext(ctx)
	if !ok {
		panic("narrator: MustFromContext called on a context without a narrator; wrap it with narrator.NewContext")
	}
	return n
}
