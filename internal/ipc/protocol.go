package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Commands understood by the owner process.
const (
	CommandStatus  = "status"
	CommandPartial = "partial"
	CommandFinal   = "final"
	CommandReset   = "reset"
	CommandMode    = "mode"
	CommandDigits  = "digits"
	CommandStats   = "stats"
	CommandReload  = "reload"
)

// Request is one newline-delimited JSON command.
type Request struct {
	Command string `json:"command"`
	// Text is the recognizer hypothesis for partial and final.
	Text string `json:"text,omitempty"`
	// Left is the text before the cursor, when the caller knows it.
	Left string `json:"left,omitempty"`
	// Value is the argument of mode and digits.
	Value string `json:"value,omitempty"`
}

// Response answers one Request. Data carries a command-specific payload.
type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WithData encodes v into the response payload.
func (r Response) WithData(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{OK: false, State: r.State, Error: fmt.Sprintf("encode response data: %v", err)}
	}
	r.Data = data
	return r
}

// Decode reads the payload into v.
func (r Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return errors.New("response carries no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Failure builds an error response.
func Failure(state string, err error) Response {
	return Response{OK: false, State: state, Error: err.Error()}
}
