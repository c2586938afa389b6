package model

// Metadata describes the exported classifier: tensor shapes and the
// label vocabulary it was trained with. The vocabulary is a versioned
// contract; it is validated against the expected semantic classes at
// load time.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// Result is the top-1 outcome of a single classification.
type Result struct {
	ClassID    int
	Label      string
	Confidence float32
}
