package model

// DecodeError records an upstream event that could not be decoded or stored.
type DecodeError struct {
	Category   Category `json:"category"`
	Stage      string   `json:"stage"`
	Raw        RawEvent `json:"raw"`
	Error      string   `json:"error"`
	RecordedAt string   `json:"recorded_at"`
}
