package client

import "time"

// LaunchRequest mirrors the POST /launch body.
type LaunchRequest struct {
	GamePath string `json:"game_path"`
	File     string `json:"file"`
	Count    uint32 `json:"count"`
	ArgMode  string `json:"arg_mode,omitempty"`
}

// LaunchResult is returned by a successful launch.
type LaunchResult struct {
	Message  string `json:"message"`
	Launched uint32 `json:"launched"`
	LaunchID string `json:"launch_id"`
}

// ResolvedConfig is the GET /config payload.
type ResolvedConfig struct {
	Text     string `json:"text"`
	GamePath string `json:"game_path"`
	Source   string `json:"source"`
}

// Event is one launch history record.
type Event struct {
	LaunchID   string    `json:"launch_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	GamePath   string    `json:"game_path"`
	File       string    `json:"file"`
	Instance   int       `json:"instance,omitempty"`
	PID        int       `json:"pid,omitempty"`
	Requested  int       `json:"requested"`
	Launched   int       `json:"launched"`
	Error      string    `json:"error,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error    string  `json:"error"`
	Index    *uint32 `json:"index,omitempty"`
	Launched *uint32 `json:"launched,omitempty"`
}
