package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decoding of raw documents into canonical records. The organizations
// collection predates the structured binding format, so several historical
// shapes coexist:
//
//   - channel_projects values may be a bare project-name string or a
//     {project, welcome_shown} document;
//   - joined_date may be a serialized string or a native datetime;
//   - rate limit request lists may mix native datetimes and ISO strings.
//
// Everything is resolved here, once, so the rest of the codebase only sees
// the canonical types in store.go.

const joinedDateLayout = "2006-01-02T15:04:05.999999999Z"

// FormatJoinedDate renders t in the canonical serialized form used for
// the joined_date field.
func FormatJoinedDate(t time.Time) string {
	return t.UTC().Format(joinedDateLayout)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case primitive.M:
		return m, true
	case primitive.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	default:
		return nil, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case primitive.A:
		return s, true
	default:
		return nil, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	default:
		return time.Time{}, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// decodeOrg normalizes a raw organization document.
func decodeOrg(doc map[string]any) *Org {
	org := &Org{}

	if s, ok := asString(doc["team_id"]); ok {
		org.TeamID = s
	}

	switch {
	case doc["joined_date"] == nil:
		// absent, needs backfill
	default:
		if s, ok := asString(doc["joined_date"]); ok {
			org.JoinedDate = s
		} else if t, ok := asTime(doc["joined_date"]); ok {
			org.JoinedDate = FormatJoinedDate(t)
			org.JoinedDateNative = true
		}
	}

	if raw, exists := doc["channel_projects"]; exists {
		org.HasBindings = true
		org.Bindings = decodeBindings(raw)
	}

	if raw, exists := doc["projects"]; exists {
		if m, ok := asMap(raw); ok {
			org.Projects = make(map[string]map[string]any, len(m))
			for name, v := range m {
				if proj, ok := asMap(v); ok {
					org.Projects[name] = copyDoc(proj)
				}
			}
		}
	}

	if n, ok := asInt64(doc["bot_invocations_total"]); ok {
		org.Invocations = n
	}

	return org
}

// decodeBindings handles both the legacy bare-string shape and the
// structured {project, welcome_shown} shape.
func decodeBindings(raw any) map[string]ChannelBinding {
	m, ok := asMap(raw)
	if !ok {
		return map[string]ChannelBinding{}
	}

	bindings := make(map[string]ChannelBinding, len(m))
	for channelID, v := range m {
		if name, ok := asString(v); ok {
			bindings[channelID] = ChannelBinding{Project: name}
			continue
		}
		info, ok := asMap(v)
		if !ok {
			continue
		}
		b := ChannelBinding{}
		if name, ok := asString(info["project"]); ok {
			b.Project = name
		}
		if shown, exists := info["welcome_shown"]; exists {
			b.WelcomeSet = true
			if flag, ok := shown.(bool); ok {
				b.WelcomeShown = flag
			}
		}
		bindings[channelID] = b
	}
	return bindings
}

// decodeRequestTimes filters a stored request list down to usable
// timestamps. Entries may be native datetimes or serialized strings;
// unparsable entries are dropped rather than failing the whole read.
func decodeRequestTimes(raw any) []time.Time {
	entries, ok := asSlice(raw)
	if !ok {
		return nil
	}

	times := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		if t, ok := asTime(e); ok {
			times = append(times, t)
			continue
		}
		if s, ok := asString(e); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				times = append(times, t)
			}
		}
	}
	return times
}

func decodeWindow(doc map[string]any) *RateLimitWindow {
	w := &RateLimitWindow{}
	if s, ok := asString(doc["rate_limit_key"]); ok {
		w.Key = s
	}
	if s, ok := asString(doc["team_id"]); ok {
		w.TeamID = s
	}
	w.Requests = decodeRequestTimes(doc["requests"])
	if t, ok := asTime(doc["created_at"]); ok {
		w.CreatedAt = t
	}
	if t, ok := asTime(doc["updated_at"]); ok {
		w.UpdatedAt = t
	}
	return w
}

// copyDoc deep-copies a raw document, converting driver-specific types
// (primitive.M, primitive.A, primitive.DateTime) to plain Go values so
// callers never see a bson type or alias a stored map.
func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	if m, ok := asMap(v); ok {
		return copyDoc(m)
	}
	if s, ok := asSlice(v); ok {
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = normalizeValue(e)
		}
		return out
	}
	if t, ok := asTime(v); ok {
		return t
	}
	return v
}
