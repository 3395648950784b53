package model

import "encoding/json"

// Envelope is the uniform wrapper the backend returns for every endpoint.
// Data stays raw so callers can distinguish an absent payload from a null one.
type Envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	OK    bool            `json:"ok"`
	TS    int64           `json:"ts"`
	Msg   string          `json:"msg,omitempty"`
	Error string          `json:"error,omitempty"`
}

// HasData reports whether the envelope carried a non-null data field.
func (e *Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}
