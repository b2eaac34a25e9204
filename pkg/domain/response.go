package domain

import "encoding/json"

// Content block types.
const (
	ContentText = "text"
	ContentJSON = "json"
)

// ContentBlock is a single unit of response content.
// Text blocks carry human-readable output; JSON blocks carry structured data.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Response is the externally visible outcome of a tool invocation: an ordered
// sequence of content blocks plus an error flag. A Response is immutable once
// constructed; the engine never returns nil.
type Response struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"is_error,omitempty"`
}

// NewTextResponse builds a successful Response with a single text block.
func NewTextResponse(text string) *Response {
	return &Response{
		Content: []ContentBlock{{Type: ContentText, Text: text}},
	}
}

// NewJSONResponse builds a successful Response with a single structured block.
func NewJSONResponse(data any) *Response {
	return &Response{
		Content: []ContentBlock{{Type: ContentJSON, Data: data}},
	}
}

// NewErrorResponse builds a failed Response whose text block carries the
// error message. This is the only shape failures take past the engine
// boundary; raw errors never escape it.
func NewErrorResponse(err error) *Response {
	return &Response{
		Content: []ContentBlock{{Type: ContentText, Text: err.Error()}},
		IsError: true,
	}
}

// FirstText returns the text of the first text block, or "" if none exists.
// Convenience for hosts that only care about a single textual payload.
func (r *Response) FirstText() string {
	for _, b := range r.Content {
		if b.Type == ContentText {
			return b.Text
		}
	}
	return ""
}

// JSON renders the response as a compact JSON payload.
// Used by transports that need a single opaque payload.
func (r *Response) JSON() ([]byte, error) {
	return json.Marshal(r)
}
