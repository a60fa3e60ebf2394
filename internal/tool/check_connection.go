package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"
)

// CheckConnectionRequest has no parameters.
type CheckConnectionRequest struct{}

// CheckConnectionResponse reports whether the Gmail account is reachable.
type CheckConnectionResponse struct {
	EmailAddress  string `json:"email_address" jsonschema:"authenticated account email"`
	MessagesTotal int64  `json:"messages_total" jsonschema:"total messages in the account"`
	ThreadsTotal  int64  `json:"threads_total" jsonschema:"total threads in the account"`
}

type profileSvc interface {
	GetProfile(ctx context.Context) (*gmail.Profile, error)
}

// NewCheckConnection creates a new CheckConnection tool.
func NewCheckConnection(svc profileSvc) *CheckConnection {
	return &CheckConnection{
		svc: svc,
	}
}

// CheckConnection verifies credentials and API reachability via GetProfile.
type CheckConnection struct {
	svc profileSvc
}

// CheckConnection fetches the account profile.
func (t *CheckConnection) CheckConnection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CheckConnectionRequest,
) (*mcp.CallToolResult, CheckConnectionResponse, error) {
	profile, err := t.svc.GetProfile(ctx)
	if err != nil {
		return nil, CheckConnectionResponse{}, fmt.Errorf("svc.GetProfile failed: %w", err)
	}

	return nil, CheckConnectionResponse{
		EmailAddress:  profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
	}, nil
}
