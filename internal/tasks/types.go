package tasks

import "encoding/json"

// AnalyzeRequest is the body of both analyze and suggest. Tasks stay raw
// until validated so that a missing field can be told from a zero value.
type AnalyzeRequest struct {
	Tasks    []json.RawMessage `json:"tasks"`
	Strategy string            `json:"strategy"`
}

type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

type StrategyInfo struct {
	Name        Strategy `json:"name"`
	DisplayName string   `json:"display_name"`
}

type errorResponse struct {
	Error string `json:"error"`
}
