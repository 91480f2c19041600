package models

// LogEntry is the unified structured-log format emitted by every component.
// The shape is stable so downstream collection can index it without guessing.
type LogEntry struct {
	// ServiceName is the component that produced the entry, e.g. "inquiry-engine".
	ServiceName string `json:"service_name"`

	// TraceID links the log lines of a single turn across components.
	TraceID string `json:"trace_id,omitempty"`

	// SessionID identifies the conversation session the entry belongs to.
	SessionID string `json:"session_id,omitempty"`

	// RequestInfo carries details of the HTTP request that triggered the entry.
	RequestInfo *RequestInfo `json:"request_info,omitempty"`

	// Error holds structured error details, filled at Error level and above.
	Error *ErrorInfo `json:"error,omitempty"`

	// Payload holds any additional business data worth recording.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo stores context about an HTTP request.
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
}

// ErrorInfo stores structured information about an error.
type ErrorInfo struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	Type       string `json:"type,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}
