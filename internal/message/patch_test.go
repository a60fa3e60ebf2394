package message_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkharitonov/gmailcal-mcp/internal/message"
)

func parseObject(t *testing.T, raw string) map[string]any {
	t.Helper()

	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &obj))
	return obj
}

func TestPatchAppliesDefaults(t *testing.T) {
	obj := parseObject(t, `{"id": "m1"}`)

	modified := message.Patch(obj)

	assert.True(t, modified)
	assert.Equal(t, "0", obj["internalDate"])
	assert.Equal(t, []any{}, obj["labelIds"])
	assert.Equal(t, "", obj["snippet"])
	assert.Equal(t, "m1", obj["threadId"])
	assert.Equal(t, map[string]any{
		"headers":  []any{},
		"mimeType": "text/plain",
	}, obj["payload"])
}

func TestPatchIsNonDestructive(t *testing.T) {
	obj := parseObject(t, `{
		"id": "m2",
		"threadId": "t2",
		"internalDate": "1744711200000",
		"labelIds": ["INBOX", "IMPORTANT"],
		"snippet": "already here",
		"payload": {
			"mimeType": "multipart/mixed",
			"headers": [{"name": "Subject", "value": "Hi"}]
		}
	}`)

	modified := message.Patch(obj)

	assert.False(t, modified)
	assert.Equal(t, "t2", obj["threadId"])
	assert.Equal(t, "1744711200000", obj["internalDate"])
	assert.Equal(t, []any{"INBOX", "IMPORTANT"}, obj["labelIds"])
	assert.Equal(t, "already here", obj["snippet"])

	payload := obj["payload"].(map[string]any)
	assert.Equal(t, "multipart/mixed", payload["mimeType"])
	assert.Len(t, payload["headers"], 1)
}

func TestPatchTreatsNullAsMissing(t *testing.T) {
	obj := parseObject(t, `{
		"id": "m3",
		"threadId": null,
		"internalDate": null,
		"labelIds": null,
		"snippet": null,
		"payload": null
	}`)

	modified := message.Patch(obj)

	assert.True(t, modified)
	assert.Equal(t, "m3", obj["threadId"])
	assert.Equal(t, "0", obj["internalDate"])
	assert.Equal(t, []any{}, obj["labelIds"])
	assert.Equal(t, "", obj["snippet"])
	assert.NotNil(t, obj["payload"])
}

func TestPatchThreadIDFallsBackToUnknown(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "id_absent", raw: `{}`},
		{name: "id_empty", raw: `{"id": ""}`},
		{name: "id_not_a_string", raw: `{"id": 42}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj := parseObject(t, tc.raw)

			message.Patch(obj)

			assert.Equal(t, "unknown", obj["threadId"])
		})
	}
}

func TestPatchFillsPartialPayload(t *testing.T) {
	obj := parseObject(t, `{
		"id": "m4",
		"payload": {"mimeType": "text/html"}
	}`)

	modified := message.Patch(obj)

	assert.True(t, modified)

	payload := obj["payload"].(map[string]any)
	assert.Equal(t, "text/html", payload["mimeType"], "present mimeType must not be overwritten")
	assert.Equal(t, []any{}, payload["headers"])
}
