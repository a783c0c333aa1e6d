package llm

import "time"

// ErrorResponse is the JSON error body returned by the model server and by
// the ollamaui API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ModelInfo describes one locally available model from /api/tags.
type ModelInfo struct {
	Name       string       `json:"name"`
	Model      string       `json:"model,omitempty"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

// ModelDetails is the nested details object of ModelInfo.
type ModelDetails struct {
	Format            string `json:"format,omitempty"`
	Family            string `json:"family,omitempty"`
	ParameterSize     string `json:"parameter_size,omitempty"`
	QuantizationLevel string `json:"quantization_level,omitempty"`
}

// ListModelsResponse is the body of GET /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}
