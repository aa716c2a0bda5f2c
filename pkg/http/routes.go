package http

// Route names; these also label request metrics.
const (
	Ping    = "Ping"
	Version = "Version"
	Kinds   = "Kinds"
	Render  = "Render"
	Metrics = "Metrics"
)
