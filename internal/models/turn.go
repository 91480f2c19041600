package models

// TurnRequest is the input of one turn-API call.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text" binding:"required"`
}

// TurnResult is the output of one processed turn. A turn always carries a
// usable question; degraded modes surface through Diagnostics only.
type TurnResult struct {
	SessionID     string           `json:"session_id"`
	DomainContext DomainContext    `json:"domain_context"`
	Expertise     ExpertiseState   `json:"expertise_state"`
	Question      AdaptiveQuestion `json:"question"`
	Diagnostics   []string         `json:"diagnostics"`
}
