package tool_test

import (
	"context"
	"sync"

	"google.golang.org/api/gmail/v1"

	"github.com/mkharitonov/gmailcal-mcp/internal/message"
)

type gmailSvcMock struct {
	ListMessagesFunc       func(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageMetadataFunc func(ctx context.Context, msgID string) (*gmail.Message, error)
	ListLabelsFunc         func(ctx context.Context) (*gmail.ListLabelsResponse, error)
	GetProfileFunc         func(ctx context.Context) (*gmail.Profile, error)
}

func (m *gmailSvcMock) ListMessages(ctx context.Context, Q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, Q, pageToken, maxResults)
}

func (m *gmailSvcMock) GetMessageMetadata(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageMetadataFunc(ctx, msgID)
}

func (m *gmailSvcMock) ListLabels(ctx context.Context) (*gmail.ListLabelsResponse, error) {
	return m.ListLabelsFunc(ctx)
}

func (m *gmailSvcMock) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	return m.GetProfileFunc(ctx)
}

type messageGetterMock struct {
	GetMessageFunc func(ctx context.Context, id string) (*message.EmailMessage, error)
}

func (m *messageGetterMock) GetMessage(ctx context.Context, id string) (*message.EmailMessage, error) {
	return m.GetMessageFunc(ctx, id)
}

type callRecorderMock struct {
	mu    sync.Mutex
	calls map[string][]string
}

func (m *callRecorderMock) RecordToolCall(tool, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string][]string{}
	}
	m.calls[tool] = append(m.calls[tool], result)
}

func (m *callRecorderMock) recorded(tool string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls[tool]...)
}
