// Package golden implements the HTTP traffic recorder and replayer (C9/C10):
// deterministic capture and playback of outbound HTTP calls, with secret
// masking and content-based request matching, as "golden data" scenarios.
package golden

import "time"

// Request is a captured or recorded outbound HTTP request.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Params  map[string]string `json:"params"`
	Body    *string           `json:"body,omitempty"`
}

// Response is a captured or recorded HTTP response.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Content    string            `json:"content"`
}

// Call is one recorded request/response pair (§3 "HTTP scenario").
type Call struct {
	Request   Request   `json:"request"`
	Response  Response  `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata describes the recorded scenario's provenance (§6 golden-data
// file format).
type Metadata struct {
	Name       string         `json:"name"`
	Description string        `json:"description"`
	Module     string         `json:"module"`
	Class      string         `json:"class,omitempty"`
	Method     string         `json:"method"`
	InitKwargs map[string]any `json:"init_kwargs,omitempty"`
	Kwargs     map[string]any `json:"kwargs,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	ResultType string         `json:"result_type,omitempty"`
}

// Scenario is the full persistable unit: metadata plus an ordered call log.
type Scenario struct {
	Metadata   Metadata `json:"metadata"`
	Recordings []Call   `json:"recordings"`
}

// Masked is the placeholder substituted for any secret value (§4.9).
const Masked = "***MASKED***"
