package tool_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/mkharitonov/gmailcal-mcp/internal/tool"
)

func TestListLabels(t *testing.T) {
	cases := []struct {
		name        string
		labels      *gmail.ListLabelsResponse
		svcErr      error
		expected    tool.ListLabelsResponse
		expectedErr error
	}{
		{
			name: "success",
			labels: &gmail.ListLabelsResponse{
				Labels: []*gmail.Label{
					{Id: "INBOX", Name: "INBOX", Type: "system"},
					{Id: "Label_42", Name: "receipts", Type: "user"},
				},
			},
			expected: tool.ListLabelsResponse{
				Labels: []tool.Label{
					{ID: "INBOX", Name: "INBOX", Type: "system"},
					{ID: "Label_42", Name: "receipts", Type: "user"},
				},
				Total: 2,
			},
		},
		{
			name:     "empty account",
			labels:   &gmail.ListLabelsResponse{},
			expected: tool.ListLabelsResponse{Labels: []tool.Label{}, Total: 0},
		},
		{
			name:        "error case",
			svcErr:      fmt.Errorf("simulated labels error"),
			expectedErr: fmt.Errorf("simulated labels error"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gmailSvc := &gmailSvcMock{
				ListLabelsFunc: func(context.Context) (*gmail.ListLabelsResponse, error) {
					return tc.labels, tc.svcErr
				},
			}

			server := tool.NewServer(gmailSvc, &messageGetterMock{}, nil)
			client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
			clientTransport, serverTransport := mcp.NewInMemoryTransports()

			ctx := context.Background()

			serverSession, err := server.Connect(ctx, serverTransport, nil)
			require.NoError(t, err)
			defer serverSession.Close()

			clientSession, err := client.Connect(ctx, clientTransport, nil)
			require.NoError(t, err)
			defer clientSession.Close()

			result, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
				Name:      "list_labels",
				Arguments: tool.ListLabelsRequest{},
			})
			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Content)

			if tc.expectedErr != nil {
				require.True(t, result.IsError, "Result should indicate error")
				errorText := result.Content[0].(*mcp.TextContent).Text
				assert.Contains(t, errorText, tc.expectedErr.Error())
				return
			}

			var response tool.ListLabelsResponse
			require.NoError(t,
				json.Unmarshal(
					[]byte(result.Content[0].(*mcp.TextContent).Text),
					&response,
				),
			)
			assert.Equal(t, tc.expected, response)
		})
	}
}
