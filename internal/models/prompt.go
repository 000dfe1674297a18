// internal/models/prompt.go
package models

// PromptRequest carries the eight prompt fields submitted by the front end.
type PromptRequest struct {
	Role        string `json:"role"`
	Context     string `json:"context"`
	Example     string `json:"example"`
	Audience    string `json:"audience"`
	Format      string `json:"format"`
	Style       string `json:"style"`
	Constraints string `json:"constraints"`
	Task        string `json:"task"`
}

// PromptResponse is returned by the preview endpoint.
type PromptResponse struct {
	Prompt string `json:"prompt"`
}

// Options lists the choices the front end offers.
type Options struct {
	Formats       []string    `json:"formats"`
	Styles        []string    `json:"styles"`
	ReportFormats []string    `json:"reportFormats"`
	Models        []ModelInfo `json:"models"`
}

// ModelInfo identifies one configured model.
type ModelInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
