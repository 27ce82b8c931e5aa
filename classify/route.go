package classify

// RouteKind is the top-level capability path for a message.
type RouteKind int

const (
	// RouteGeneral is a text answer from the structured-output provider,
	// optionally with tools.
	RouteGeneral RouteKind = iota
	// RouteImage generates or edits an image.
	RouteImage
	// RouteCreative is a conversational creative-writing answer.
	RouteCreative
)

// String returns the route name used in logs.
func (k RouteKind) String() string {
	switch k {
	case RouteImage:
		return "image"
	case RouteCreative:
		return "creative"
	default:
		return "general"
	}
}

// Route is the routing decision for one message.
// Image fields are set only for RouteImage; tool fields only for RouteGeneral.
type Route struct {
	Kind RouteKind

	WithReference bool
	Lifestyle     bool

	FunctionCalling bool
	WebSearch       bool
	FileSearch      bool
}

// Decide computes the route for a message. hasReference reports whether the
// message carries an attached image.
//
// Image requests take precedence over creative ones, and the lifestyle check
// is a refinement of the image path rather than an alternative to it.
func Decide(message string, hasReference bool) Route {
	if IsImageRequest(message) {
		return Route{
			Kind:          RouteImage,
			WithReference: hasReference,
			Lifestyle:     IsLifestyleProductRequest(message),
		}
	}

	if IsCreativeRequest(message) {
		return Route{Kind: RouteCreative}
	}

	return Route{
		Kind:            RouteGeneral,
		FunctionCalling: NeedsFunctionCalling(message),
		WebSearch:       NeedsWebSearch(message),
		FileSearch:      NeedsFileSearch(message),
	}
}
