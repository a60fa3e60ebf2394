// Package gservice wraps Gmail API access for the tool layer.
package gservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mkharitonov/gmailcal-mcp/internal/config"
	"github.com/mkharitonov/gmailcal-mcp/internal/message"
)

const gmailUserID = "me"

// NewGmail creates a Gmail client authorized through ts.
func NewGmail(ts oauth2.TokenSource, log *zap.Logger) *GMail {
	return &GMail{
		ts:      ts,
		baseURL: config.GmailAPIBaseURL,
		log:     log,
	}
}

// GMail issues Gmail API calls: typed calls through the generated client and a
// raw JSON fetch for the normalization layer.
type GMail struct {
	ts      oauth2.TokenSource
	baseURL string
	log     *zap.Logger
}

// ListMessages searches messages matching Q with pagination.
func (m *GMail) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Users.Messages.List(gmailUserID).
		Q(Q).
		PageToken(pageToken).
		MaxResults(maxResults)

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	return result, nil
}

// GetMessageMetadata fetches only the headers needed for a message summary.
func (m *GMail) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).
		Format("METADATA").
		MetadataHeaders("From", "To", "Cc", "Subject", "Date").
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

// ListLabels returns all labels of the account.
func (m *GMail) ListLabels(ctx context.Context) (*gmail.ListLabelsResponse, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	labels, err := svc.Users.Labels.List(gmailUserID).Do()
	if err != nil {
		return nil, fmt.Errorf("labels.List failed: %w", err)
	}

	return labels, nil
}

// GetProfile returns the account profile, used as a connection check.
func (m *GMail) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUserID).Do()
	if err != nil {
		return nil, fmt.Errorf("users.GetProfile failed: %w", err)
	}

	return profile, nil
}

// FetchMessageRaw retrieves a message as undecoded JSON so the normalization
// layer can repair incomplete responses before structured decoding. The
// generated client cannot serve this path: it decodes eagerly and silently
// zero-fills missing fields.
func (m *GMail) FetchMessageRaw(ctx context.Context, id string, format message.Format, metadataHeaders []string) (json.RawMessage, error) {
	u, err := url.Parse(fmt.Sprintf("%s/users/%s/messages/%s", m.baseURL, gmailUserID, url.PathEscape(id)))
	if err != nil {
		return nil, fmt.Errorf("url.Parse failed: %w", err)
	}

	q := u.Query()
	q.Set("format", string(format))
	for _, h := range metadataHeaders {
		q.Add("metadataHeaders", h)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}

	clt := oauth2.NewClient(ctx, m.ts)

	resp, err := clt.Do(req)
	if err != nil {
		return nil, fmt.Errorf("message fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading message response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("message fetch returned status %d: %s", resp.StatusCode, string(body))
	}

	m.log.Debug("fetched raw message",
		zap.String("message_id", id),
		zap.String("format", string(format)),
		zap.Int("bytes", len(body)),
	)

	return json.RawMessage(body), nil
}

func (m *GMail) newSvc(ctx context.Context) (*gmail.Service, error) {
	clt := oauth2.NewClient(ctx, m.ts)

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}
