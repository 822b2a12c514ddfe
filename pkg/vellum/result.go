package vellum

// Page is one transcribed page of a Result. Page numbers are 1-based
// document positions resolved through the run's page selection.
type Page struct {
	Content       string `json:"content" yaml:"content"`
	Page          int    `json:"page" yaml:"page"`
	ContentLength int    `json:"content_length" yaml:"content_length"`
}

// Result is the outcome of a run. Pages are ordered by their position in
// the run, never by completion order. On a partial parallel run it holds
// the pages that completed.
type Result struct {
	// CompletionTime is the wall-clock duration of the run in
	// milliseconds.
	CompletionTime int64 `json:"completion_time" yaml:"completion_time"`
	// FileName is the sanitized source name, without extension.
	FileName     string `json:"file_name" yaml:"file_name"`
	InputTokens  int64  `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64  `json:"output_tokens" yaml:"output_tokens"`
	Pages        []Page `json:"pages" yaml:"pages"`
}

// ExtractResult is the outcome of a schema extraction.
type ExtractResult struct {
	Data           map[string]any `json:"data" yaml:"data"`
	InputTokens    int64          `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens   int64          `json:"output_tokens" yaml:"output_tokens"`
	CompletionTime int64          `json:"completion_time" yaml:"completion_time"`
}
