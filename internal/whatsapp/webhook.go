package whatsapp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventMessagesUpsert is the webhook event carrying new messages.
const EventMessagesUpsert = "messages.upsert"

// Inbound is a text message received from a lead.
type Inbound struct {
	Instance  string
	Phone     string
	PushName  string
	Text      string
	MessageID string
	At        time.Time
}

type webhookEnvelope struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

type webhookMessage struct {
	Key      MessageKey `json:"key"`
	PushName string     `json:"pushName"`
	Message  struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
		ImageMessage struct {
			Caption string `json:"caption"`
		} `json:"imageMessage"`
	} `json:"message"`
	MessageTimestamp json.RawMessage `json:"messageTimestamp"`
}

// ParseWebhook decodes an Evolution webhook payload. It returns the inbound
// text messages it carries; other events, outbound echoes, group chats and
// messages without text yield an empty slice.
func ParseWebhook(data []byte) ([]Inbound, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("whatsapp: decode webhook: %w", err)
	}
	if normalizeEvent(env.Event) != EventMessagesUpsert || len(env.Data) == 0 {
		return []Inbound{}, nil
	}

	// data is a single message or a list, depending on the API version.
	var msgs []webhookMessage
	if strings.HasPrefix(strings.TrimSpace(string(env.Data)), "[") {
		if err := json.Unmarshal(env.Data, &msgs); err != nil {
			return nil, fmt.Errorf("whatsapp: decode messages: %w", err)
		}
	} else {
		var m webhookMessage
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("whatsapp: decode message: %w", err)
		}
		msgs = []webhookMessage{m}
	}

	out := []Inbound{}
	for _, m := range msgs {
		if m.Key.FromMe || strings.HasSuffix(m.Key.RemoteJid, "@g.us") {
			continue
		}
		text := firstNonEmpty(m.Message.Conversation, m.Message.ExtendedTextMessage.Text, m.Message.ImageMessage.Caption)
		phone := FormatPhone(m.Key.RemoteJid)
		if text == "" || phone == "" {
			continue
		}
		out = append(out, Inbound{
			Instance:  env.Instance,
			Phone:     phone,
			PushName:  m.PushName,
			Text:      text,
			MessageID: m.Key.ID,
			At:        parseTimestamp(m.MessageTimestamp),
		})
	}
	return out, nil
}

// normalizeEvent maps "MESSAGES_UPSERT" and "messages.upsert" to the same name.
func normalizeEvent(event string) string {
	return strings.ReplaceAll(strings.ToLower(event), "_", ".")
}

// parseTimestamp accepts unix seconds as a JSON number or string. Invalid or
// missing values yield the zero time.
func parseTimestamp(raw json.RawMessage) time.Time {
	s := strings.Trim(string(raw), `"`)
	if s == "" || s == "null" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
