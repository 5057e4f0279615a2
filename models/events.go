package models

// EventKind identifies the structured event a turn carries.
type EventKind string

const (
	// EventMessage is free text the extractor could not resolve into
	// structured fields; the machine treats it as a field-update attempt.
	EventMessage EventKind = "message"
	// EventFields carries one or more extracted field values.
	EventFields EventKind = "fields"
	// EventConfirm is an explicit affirmative reply.
	EventConfirm EventKind = "confirm"
	// EventDeny is an explicit negative reply.
	EventDeny EventKind = "deny"
	// EventReset clears the session from any state.
	EventReset EventKind = "reset"
	// EventOutOfScope marks clinical or otherwise out-of-policy requests.
	EventOutOfScope EventKind = "out_of_scope"
)

// TurnEvent is the contract between the language layer and the session
// machine. The machine never consumes raw text directly; the extractor maps
// each inbound message into exactly one TurnEvent.
type TurnEvent struct {
	Kind   EventKind         `json:"kind"`
	Text   string            `json:"text,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// TurnResult is what a processed turn hands back to the orchestrator:
// the reply to relay and the resulting session state for prompting context.
type TurnResult struct {
	Reply string `json:"reply"`
	State string `json:"state"`
}
