package llmstream

type EventType string

const (
	// EventTypeTextDelta is emitted as the model outputs text. The event has Delta and the cumulative Text.
	EventTypeTextDelta EventType = "text_delta"

	EventTypeCompletedSuccess EventType = "completed_success" // Stream has ended successfully. Event has the final Text, Usage, and FinishReason.
	EventTypeError            EventType = "error"             // Some error occurred. Event has Error set.
)

type Event struct {
	Type  EventType
	Error error

	// Delta is new text appended since the previous EventTypeTextDelta. Text always ends with Delta.
	Delta string

	// Text is the cumulative model output so far (a snapshot).
	Text string

	// Usage and FinishReason are only set on EventTypeCompletedSuccess.
	Usage        TokenUsage
	FinishReason string // ex: "stop", "length"
}

func newErrorEvent(err error) Event {
	return Event{Type: EventTypeError, Error: err}
}

type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64

	// Estimated is true if the provider reported no usage and OutputTokens was counted locally (InputTokens is then 0).
	Estimated bool
}
