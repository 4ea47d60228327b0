package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhook_Upsert(t *testing.T) {
	msgs, err := ParseWebhook([]byte(`{
		"event": "messages.upsert",
		"instance": "main",
		"data": {
			"key": {"remoteJid": "5511988887777@s.whatsapp.net", "fromMe": false, "id": "ABC"},
			"pushName": "Caio",
			"message": {"conversation": "oi"},
			"messageTimestamp": 1700000000
		}
	}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	m := msgs[0]
	assert.Equal(t, "5511988887777", m.Phone)
	assert.Equal(t, "Caio", m.PushName)
	assert.Equal(t, "oi", m.Text)
	assert.Equal(t, "ABC", m.MessageID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), m.At)
}

func TestParseWebhook_ListAndExtendedText(t *testing.T) {
	msgs, err := ParseWebhook([]byte(`{
		"event": "MESSAGES_UPSERT",
		"data": [
			{"key": {"remoteJid": "1@s.whatsapp.net", "id": "1"}, "message": {"extendedTextMessage": {"text": "first"}}, "messageTimestamp": "1700000001"},
			{"key": {"remoteJid": "2@s.whatsapp.net", "fromMe": true, "id": "2"}, "message": {"conversation": "echo"}},
			{"key": {"remoteJid": "123-456@g.us", "id": "3"}, "message": {"conversation": "group"}},
			{"key": {"remoteJid": "4@s.whatsapp.net", "id": "4"}, "message": {}}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, int64(1700000001), msgs[0].At.Unix())
}

func TestParseWebhook_OtherEvents(t *testing.T) {
	msgs, err := ParseWebhook([]byte(`{"event": "connection.update", "data": {"state": "open"}}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = ParseWebhook([]byte(`not json`))
	require.Error(t, err)
}
