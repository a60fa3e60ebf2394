// Package message guarantees structurally valid Gmail messages despite the
// upstream API occasionally returning incomplete JSON. It provides a
// non-destructive patch pass, a structured decoder, and a fetch fallback chain
// that degrades from full-format retrieval down to a synthesized placeholder.
package message

import (
	"encoding/json"
	"fmt"
)

// Header is a name/value pair from a message part.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PartBody holds a part's content: inline base64 data, an attachment
// reference, or nothing but a size.
type PartBody struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Data         string `json:"data,omitempty"`
	Size         int64  `json:"size"`
}

// Part is a node of the MIME part tree.
type Part struct {
	PartID   string    `json:"partId,omitempty"`
	MimeType string    `json:"mimeType"`
	Filename string    `json:"filename,omitempty"`
	Headers  []Header  `json:"headers"`
	Body     *PartBody `json:"body,omitempty"`
	Parts    []*Part   `json:"parts,omitempty"`
}

// EmailMessage is the normalized message shape returned to callers. After
// normalization ID, ThreadID, InternalDate and Snippet are never empty-null,
// LabelIDs is at worst an empty slice, and Payload.MimeType always has a value.
type EmailMessage struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	Snippet      string   `json:"snippet"`
	HistoryID    string   `json:"historyId,omitempty"`
	InternalDate string   `json:"internalDate"`
	Payload      *Part    `json:"payload"`
	SizeEstimate int64    `json:"sizeEstimate,omitempty"`
}

// ErrorKind classifies a decode failure so recovery logic can switch on
// structure instead of error text.
type ErrorKind int

const (
	// KindMalformed means the input was not valid JSON at all.
	KindMalformed ErrorKind = iota
	// KindMissingField means a required field was absent or null.
	KindMissingField
	// KindTypeMismatch means a field held a value of the wrong type.
	KindTypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindMissingField:
		return "missing field"
	case KindTypeMismatch:
		return "type mismatch"
	default:
		return "unknown"
	}
}

// DecodeError reports why a raw message failed structured decoding. Field is
// the dotted path of the offending field when the kind identifies one.
type DecodeError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Patchable reports whether the patch pass can plausibly repair this failure.
// Malformed JSON cannot be patched since patching operates on a parsed value.
func (e *DecodeError) Patchable() bool {
	return e.Kind != KindMalformed
}

// FormatError reports a message that failed structured decoding even after
// patching. Both decode failures are kept for diagnosability.
type FormatError struct {
	MessageID   string
	OriginalErr *DecodeError
	PatchedErr  *DecodeError
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("message %s format error: %v (after patching: %v)",
		e.MessageID, e.OriginalErr, e.PatchedErr)
}

// FieldAffected reports whether either decode failure names the given field.
func (e *FormatError) FieldAffected(name string) bool {
	return (e.OriginalErr != nil && e.OriginalErr.Field == name) ||
		(e.PatchedErr != nil && e.PatchedErr.Field == name)
}

// decodeStrict validates the parsed object against the required message shape
// and converts it into an EmailMessage.
func decodeStrict(obj map[string]any) (*EmailMessage, *DecodeError) {
	if derr := validateMessage(obj); derr != nil {
		return nil, derr
	}

	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, &DecodeError{Kind: KindTypeMismatch, Err: err}
	}

	var msg EmailMessage
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, &DecodeError{Kind: KindTypeMismatch, Err: err}
	}

	return &msg, nil
}

func validateMessage(obj map[string]any) *DecodeError {
	for _, field := range []string{"id", "threadId", "internalDate", "snippet"} {
		if derr := requireString(obj, field); derr != nil {
			return derr
		}
	}

	if derr := requireStringArray(obj, "labelIds"); derr != nil {
		return derr
	}

	payload, ok := obj["payload"]
	if !ok || payload == nil {
		return &DecodeError{Kind: KindMissingField, Field: "payload"}
	}
	payloadObj, ok := payload.(map[string]any)
	if !ok {
		return &DecodeError{Kind: KindTypeMismatch, Field: "payload"}
	}

	return validatePayload(payloadObj)
}

// validatePayload enforces the shape the patch pass guarantees: mimeType and
// headers on the top-level payload. Nested parts are only checked for being
// objects; Gmail populates them fully when they are present at all.
func validatePayload(payload map[string]any) *DecodeError {
	if derr := requireString(payload, "mimeType"); derr != nil {
		derr.Field = "payload." + derr.Field
		return derr
	}

	headers, ok := payload["headers"]
	if !ok || headers == nil {
		return &DecodeError{Kind: KindMissingField, Field: "payload.headers"}
	}
	if _, ok := headers.([]any); !ok {
		return &DecodeError{Kind: KindTypeMismatch, Field: "payload.headers"}
	}

	return validatePartTree(payload, "payload")
}

func validatePartTree(part map[string]any, path string) *DecodeError {
	parts, ok := part["parts"]
	if !ok || parts == nil {
		return nil
	}
	partList, ok := parts.([]any)
	if !ok {
		return &DecodeError{Kind: KindTypeMismatch, Field: path + ".parts"}
	}

	for i, child := range partList {
		childPath := fmt.Sprintf("%s.parts[%d]", path, i)
		childObj, ok := child.(map[string]any)
		if !ok {
			return &DecodeError{Kind: KindTypeMismatch, Field: childPath}
		}
		if derr := validatePartTree(childObj, childPath); derr != nil {
			return derr
		}
	}

	return nil
}

func requireString(obj map[string]any, field string) *DecodeError {
	v, ok := obj[field]
	if !ok || v == nil {
		return &DecodeError{Kind: KindMissingField, Field: field}
	}
	if _, ok := v.(string); !ok {
		return &DecodeError{Kind: KindTypeMismatch, Field: field}
	}
	return nil
}

func requireStringArray(obj map[string]any, field string) *DecodeError {
	v, ok := obj[field]
	if !ok || v == nil {
		return &DecodeError{Kind: KindMissingField, Field: field}
	}
	list, ok := v.([]any)
	if !ok {
		return &DecodeError{Kind: KindTypeMismatch, Field: field}
	}
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return &DecodeError{Kind: KindTypeMismatch, Field: field}
		}
	}
	return nil
}

// DeserializeMessage parses raw JSON, applies the patch pass when structured
// decoding fails on a repairable field, and retries once. Malformed JSON is
// returned as a DecodeError without patching; a persistent shape failure is
// returned as a FormatError carrying both decode errors.
func DeserializeMessage(raw []byte) (*EmailMessage, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &DecodeError{Kind: KindMalformed, Err: err}
	}

	msg, derr := decodeStrict(obj)
	if derr == nil {
		return EnsureRequiredFields(msg), nil
	}

	Patch(obj)

	msg, patchedErr := decodeStrict(obj)
	if patchedErr == nil {
		return EnsureRequiredFields(msg), nil
	}

	id, _ := obj["id"].(string)
	return nil, &FormatError{
		MessageID:   id,
		OriginalErr: derr,
		PatchedErr:  patchedErr,
	}
}

// EnsureRequiredFields guarantees InternalDate is non-empty, defaulting to
// "0". Total and idempotent; no other field is altered. Every code path
// funnels through this before returning a message to the caller.
func EnsureRequiredFields(msg *EmailMessage) *EmailMessage {
	if msg == nil {
		return nil
	}
	if msg.InternalDate == "" {
		msg.InternalDate = "0"
	}
	return msg
}

// Placeholder synthesizes a minimal valid message for the given id, used when
// no real data is recoverable.
func Placeholder(id string) *EmailMessage {
	return &EmailMessage{
		ID:           id,
		ThreadID:     id,
		LabelIDs:     []string{},
		Snippet:      "",
		HistoryID:    "0",
		InternalDate: "0",
		Payload: &Part{
			MimeType: "text/plain",
			Headers:  []Header{},
			Body:     &PartBody{Size: 0},
		},
		SizeEstimate: 0,
	}
}
