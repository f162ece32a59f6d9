package dom

// Provider yields a candidate context derived from origin, or false when
// that candidate is unavailable.
type Provider func(origin Context) (Context, bool)

// Self yields origin itself.
func Self(origin Context) (Context, bool) {
	return origin, origin != nil
}

// ParentOf yields origin's parent. A top-level context is its own parent,
// matching window.parent.
func ParentOf(origin Context) (Context, bool) {
	if origin == nil {
		return nil, false
	}
	parent, err := origin.Parent()
	if err != nil {
		return nil, false
	}
	if parent == nil {
		return origin, true
	}
	return parent, true
}

// TopOf yields origin's outermost ancestor.
func TopOf(origin Context) (Context, bool) {
	if origin == nil {
		return nil, false
	}
	top, err := origin.Top()
	if err != nil || top == nil {
		return nil, false
	}
	return top, true
}

// Outward searches the origin, then its parent, then the top.
var Outward = []Provider{Self, ParentOf, TopOf}

// Candidates applies providers in order and returns the available contexts.
// The same context may appear more than once.
func Candidates(origin Context, providers ...Provider) []Context {
	if len(providers) == 0 {
		providers = Outward
	}

	out := make([]Context, 0, len(providers))
	for _, provider := range providers {
		if ctx, ok := provider(origin); ok {
			out = append(out, ctx)
		}
	}
	return out
}

// Locate finds the first nested context named name, searching origin, its
// parent, then its top. Access failures count as not found.
func Locate(origin Context, name string) (Context, bool) {
	for _, candidate := range Candidates(origin) {
		frames, err := candidate.FramesByName(name)
		if err != nil || len(frames) == 0 {
			continue
		}
		return frames[0], true
	}
	return nil, false
}

// LocateAll returns every context named name within candidate, or nil when
// the candidate cannot be read.
func LocateAll(candidate Context, name string) []Context {
	if candidate == nil {
		return nil
	}
	frames, err := candidate.FramesByName(name)
	if err != nil {
		return nil
	}
	return frames
}
