package comfy

// RunState is the raw run payload as returned by the upstream API. The
// schema is not stable across workflow types, so every nested field is
// optional and normalization happens in Normalize rather than here.
type RunState struct {
	LiveStatus    string   `json:"live_status,omitempty"`
	Status        string   `json:"status,omitempty"`
	Outputs       []Output `json:"outputs,omitempty"`
	Progress      float64  `json:"progress,omitempty"`
	QueuePosition *int     `json:"queue_position,omitempty"`
}

// Output is one element of a run's outputs list. Depending on the workflow,
// the generated image URL shows up directly, under images, or nested one
// level deeper under data.
type Output struct {
	URL    string        `json:"url,omitempty"`
	Images []OutputImage `json:"images,omitempty"`
	Data   *OutputData   `json:"data,omitempty"`
}

type OutputImage struct {
	URL string `json:"url,omitempty"`
}

type OutputData struct {
	URL    string        `json:"url,omitempty"`
	Images []OutputImage `json:"images,omitempty"`
}
