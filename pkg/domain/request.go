package domain

// Request is one host invocation of a selector.
type Request struct {
	Key        string   `json:"key" yaml:"key" mapstructure:"key"`
	Text       string   `json:"text" yaml:"text" mapstructure:"text"`
	Delimiter  string   `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`
	Behavior   Behavior `json:"behavior" yaml:"behavior" mapstructure:"behavior"`
	StartIndex int      `json:"start_index" yaml:"start_index" mapstructure:"start_index"`
}

// Result is the segment chosen for one call.
// The zero value is the defined result for input that yields no segments.
type Result struct {
	Segment string `json:"segment" yaml:"segment"`
	Index   int    `json:"index" yaml:"index"`
	Total   int    `json:"total" yaml:"total"`
}

// BatchItem is one sub-selector evaluated as part of a batch.
// Repeat is its repeat multiplier and must be at least 1.
// batch.DecodeItems fills in 1 when the field is absent from the raw input.
type BatchItem struct {
	Request `yaml:",inline" mapstructure:",squash"`
	Repeat  int `json:"repeat" yaml:"repeat" mapstructure:"repeat"`
}

// Batch is the expanded output of several sub-selectors evaluated in one host call.
type Batch struct {
	// RepeatCount is the product of all repeat multipliers.
	RepeatCount int `json:"repeat_count" yaml:"repeat_count"`

	// Results holds the single resolved selection per sub-selector.
	Results []Result `json:"results" yaml:"results"`

	// Segments[i] is Results[i].Segment repeated RepeatCount times.
	Segments [][]string `json:"segments" yaml:"segments"`

	// Indices[i] is Results[i].Index repeated RepeatCount times.
	Indices [][]int `json:"indices" yaml:"indices"`

	// Combined is the space-joined non-empty segments, repeated RepeatCount times.
	Combined []string `json:"combined" yaml:"combined"`
}
