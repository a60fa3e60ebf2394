package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"
)

// ListLabelsRequest has no parameters.
type ListLabelsRequest struct{}

// ListLabelsResponse contains the account's labels.
type ListLabelsResponse struct {
	Labels []Label `json:"labels" jsonschema:"array of labels"`
	Total  int     `json:"total" jsonschema:"number of labels"`
}

// Label describes one Gmail label.
type Label struct {
	ID   string `json:"id" jsonschema:"label ID"`
	Name string `json:"name" jsonschema:"label display name"`
	Type string `json:"type,omitempty" jsonschema:"system or user"`
}

type listLabelsSvc interface {
	ListLabels(ctx context.Context) (*gmail.ListLabelsResponse, error)
}

// NewListLabels creates a new ListLabels tool.
func NewListLabels(svc listLabelsSvc) *ListLabels {
	return &ListLabels{
		svc: svc,
	}
}

// ListLabels lists the labels of the account.
type ListLabels struct {
	svc listLabelsSvc
}

// ListLabels returns all labels.
func (t *ListLabels) ListLabels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListLabelsRequest,
) (*mcp.CallToolResult, ListLabelsResponse, error) {
	result, err := t.svc.ListLabels(ctx)
	if err != nil {
		return nil, ListLabelsResponse{}, fmt.Errorf("svc.ListLabels failed: %w", err)
	}

	labels := make([]Label, 0, len(result.Labels))
	for _, l := range result.Labels {
		labels = append(labels, Label{
			ID:   l.Id,
			Name: l.Name,
			Type: l.Type,
		})
	}

	return nil, ListLabelsResponse{
		Labels: labels,
		Total:  len(labels),
	}, nil
}
