package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mkharitonov/gmailcal-mcp/internal/message"
)

// GetMessageRequest identifies the message to retrieve.
type GetMessageRequest struct {
	MessageID string `json:"message_id" jsonschema:"the message ID to retrieve"`
}

// GetMessageResponse contains the normalized message content.
type GetMessageResponse struct {
	Summary      MessageSummary `json:"summary" jsonschema:"message summary"`
	InternalDate string         `json:"internal_date" jsonschema:"internal timestamp in epoch millis"`
	Labels       []string       `json:"labels" jsonschema:"label IDs on the message"`
	BodyText     string         `json:"body_text,omitempty" jsonschema:"decoded message body"`
	Attachments  []Attachment   `json:"attachments,omitempty" jsonschema:"list of attachments"`
}

// Attachment represents email attachment metadata.
type Attachment struct {
	ID       string `json:"id" jsonschema:"attachment ID"`
	Filename string `json:"filename" jsonschema:"original filename"`
	MimeType string `json:"mime_type" jsonschema:"MIME type"`
	Size     int64  `json:"size" jsonschema:"size in bytes"`
}

type messageGetter interface {
	GetMessage(ctx context.Context, id string) (*message.EmailMessage, error)
}

// NewGetMessage creates a new GetMessage tool.
func NewGetMessage(getter messageGetter) *GetMessage {
	return &GetMessage{
		getter: getter,
	}
}

// GetMessage retrieves one message through the normalization fallback chain.
type GetMessage struct {
	getter messageGetter
}

// GetMessage fetches, normalizes and unpacks the requested message.
func (t *GetMessage) GetMessage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMessageRequest,
) (*mcp.CallToolResult, GetMessageResponse, error) {
	msg, err := t.getter.GetMessage(ctx, input.MessageID)
	if err != nil {
		return nil, GetMessageResponse{}, fmt.Errorf("get message %s failed: %w", input.MessageID, err)
	}

	resp := GetMessageResponse{
		Summary:      summaryFromMessage(msg),
		InternalDate: msg.InternalDate,
		Labels:       msg.LabelIDs,
	}

	if msg.Payload != nil {
		resp.BodyText = extractBodyText(msg.Payload)
		resp.Attachments = extractAttachments(msg.Payload)
	}

	return nil, resp, nil
}

func summaryFromMessage(msg *message.EmailMessage) MessageSummary {
	summary := MessageSummary{
		ID:       msg.ID,
		ThreadID: msg.ThreadID,
		Snippet:  msg.Snippet,
	}

	if msg.Payload == nil {
		return summary
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			summary.From = parseEmailAddress(header.Value)
		case "To":
			summary.To = parseEmailAddressList(header.Value)
		case "Cc":
			summary.CC = parseEmailAddressList(header.Value)
		case "Subject":
			summary.Subject = header.Value
		case "Date":
			summary.Timestamp = header.Value
		}
	}

	return summary
}

// extractBodyText walks the part tree and returns the first text/plain body,
// falling back to the first text/html body decoded as-is.
func extractBodyText(payload *message.Part) string {
	textBody, htmlBody := extractBodies(payload)
	if textBody != "" {
		return textBody
	}
	return htmlBody
}

func extractBodies(part *message.Part) (textBody, htmlBody string) {
	textBody, htmlBody = bodyFromPart(part)

	for _, child := range part.Parts {
		childText, childHTML := extractBodies(child)

		if textBody == "" {
			textBody = childText
		}
		if htmlBody == "" {
			htmlBody = childHTML
		}
	}

	return textBody, htmlBody
}

func bodyFromPart(part *message.Part) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" {
		return "", ""
	}

	decoded, err := message.DecodeBase64(part.Body.Data)
	if err != nil {
		// Undecodable content is passed through rather than dropped.
		decoded = part.Body.Data
	}

	switch part.MimeType {
	case "text/plain":
		return decoded, ""
	case "text/html":
		return "", decoded
	default:
		return "", ""
	}
}

func extractAttachments(payload *message.Part) []Attachment {
	var attachments []Attachment

	if payload.Body != nil && payload.Body.AttachmentID != "" {
		attachments = append(attachments, Attachment{
			ID:       payload.Body.AttachmentID,
			Filename: payload.Filename,
			MimeType: payload.MimeType,
			Size:     payload.Body.Size,
		})
	}

	for _, part := range payload.Parts {
		if part.Body != nil && part.Body.AttachmentID != "" {
			attachments = append(attachments, Attachment{
				ID:       part.Body.AttachmentID,
				Filename: part.Filename,
				MimeType: part.MimeType,
				Size:     part.Body.Size,
			})
		}

		if len(part.Parts) > 0 {
			attachments = append(attachments, extractAttachments(part)...)
		}
	}

	return attachments
}
