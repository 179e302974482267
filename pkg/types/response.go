package types

// Envelope is embedded in every success payload so responses render as {"ok":true,...}.
type Envelope struct {
	OK bool `json:"ok"`
}

func Success() Envelope {
	return Envelope{OK: true}
}

type ErrorEnvelope struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
