package metrics

/*
Labels and so on for metrics used in kubeingest.
*/

const (
	LabelKind    = "kind"
	LabelMethod  = "method"
	LabelRoute   = "route"
	LabelSuccess = "success"

	// Labels for rendering metrics
	LabelRenderer = "renderer"
	LabelTool     = "tool"
)
