package message

// Patch fills the fields Gmail is known to omit from message responses,
// mutating obj in place. Each fix applies only when the field is absent or
// JSON null; present non-null values are never overwritten. Reports whether
// anything was changed.
func Patch(obj map[string]any) bool {
	modified := false

	if missing(obj, "internalDate") {
		obj["internalDate"] = "0"
		modified = true
	}

	if missing(obj, "labelIds") {
		obj["labelIds"] = []any{}
		modified = true
	}

	if missing(obj, "snippet") {
		obj["snippet"] = ""
		modified = true
	}

	if missing(obj, "threadId") {
		if id, ok := obj["id"].(string); ok && id != "" {
			obj["threadId"] = id
		} else {
			obj["threadId"] = "unknown"
		}
		modified = true
	}

	if missing(obj, "payload") {
		obj["payload"] = map[string]any{
			"headers":  []any{},
			"mimeType": "text/plain",
		}
		modified = true
	} else if payload, ok := obj["payload"].(map[string]any); ok {
		if missing(payload, "headers") {
			payload["headers"] = []any{}
			modified = true
		}
		if missing(payload, "mimeType") {
			payload["mimeType"] = "text/plain"
			modified = true
		}
	}

	return modified
}

func missing(obj map[string]any, field string) bool {
	v, ok := obj[field]
	return !ok || v == nil
}
