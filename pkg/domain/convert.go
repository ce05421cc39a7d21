package domain

// ConvertRequest is the body accepted by the conversion endpoint.
type ConvertRequest struct {
	Text string `json:"text"`
}

// ConvertResponse carries the diagram description returned by the generator, verbatim.
type ConvertResponse struct {
	Mermaid string `json:"mermaid"`
}

// ErrorResponse is the single error envelope returned by the HTTP adapter.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Mode selects how the editor buffer is interpreted.
type Mode string

const (
	// ModeVisualize renders the buffer as diagram syntax on every change.
	ModeVisualize Mode = "visualize"
	// ModeConvert treats the buffer as free text sent to the generator.
	ModeConvert Mode = "convert"
)

// Tab selects the right-hand pane in convert mode.
type Tab string

const (
	TabPreview Tab = "preview"
	TabCode    Tab = "code"
)

// User-facing messages. Every failure collapses to one of these.
const (
	MessageInvalidSyntax    = "Invalid Mermaid syntax. Please check your input."
	MessageConversionFailed = "Conversion failed. Please try again."
	MessageInternalError    = "Internal server error"
	MessageInvalidBody      = "Invalid request body"
	MessagePreviewEmpty     = "Preview will appear here"
)
