package api

import (
	"net/http"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
)

// ListConversations handles GET /inbox/conversations.
//
// @Summary      List conversations
// @Description  Pinned conversations first, then by latest activity.
// @Tags         inbox
// @Produce      json
// @Param        status  query  string  false  "open, pending or closed"
// @Param        unread  query  bool    false  "Filter by unread flag"
// @Param        q       query  string  false  "Substring of lead name, phone or last message"
// @Param        limit   query  int     false  "Max results"
// @Param        offset  query  int     false  "Pagination offset"
// @Success      200  {object}  okResponse{data=ConversationList}
// @Failure      400  {object}  errResponse
// @Router       /inbox/conversations [get]
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	unread, err := queryBool(r, "unread")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset := pagination(r)
	q := r.URL.Query()
	items, total, err := h.inbox.ListConversations(r.Context(), clientID(r), inboxservice.ListParams{
		Status: q.Get("status"),
		Unread: unread,
		Query:  q.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ConversationList{Items: items, Total: total})
}

// InboxStats handles GET /inbox/stats.
func (h *Handler) InboxStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.inbox.Stats(r.Context(), clientID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

// GetConversation handles GET /inbox/conversations/{id}.
//
// @Summary      Get a conversation with its timeline
// @Tags         inbox
// @Produce      json
// @Param        id  path  int  true  "Conversation id"
// @Success      200  {object}  okResponse{data=models.Conversation}
// @Failure      404  {object}  errResponse
// @Router       /inbox/conversations/{id} [get]
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.inbox.GetConversation(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// CreateConversation handles POST /inbox/conversations.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var in ConversationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.inbox.CreateConversation(r.Context(), clientID(r), in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

// UpdateConversation handles PATCH /inbox/conversations/{id}.
//
// @Summary      Patch a conversation
// @Description  Every effective change appends a typed event to the timeline.
// @Tags         inbox
// @Accept       json
// @Produce      json
// @Param        id         path    int         true   "Conversation id"
// @Param        X-Actor    header  string      false  "Operator name recorded on events"
// @Param        body       body    PatchInput  true   "Fields to change"
// @Success      200  {object}  okResponse{data=models.Conversation}
// @Failure      400  {object}  errResponse
// @Failure      404  {object}  errResponse
// @Router       /inbox/conversations/{id} [patch]
func (h *Handler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in PatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.inbox.UpdateConversation(r.Context(), clientID(r), id, in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// MarkRead handles POST /inbox/conversations/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.inbox.MarkRead(r.Context(), clientID(r), id, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// ListEvents handles GET /inbox/conversations/{id}/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.inbox.ListEvents(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events)
}

// AddEvent handles POST /inbox/conversations/{id}/events.
//
// @Summary      Append a note
// @Tags         inbox
// @Accept       json
// @Produce      json
// @Param        id    path  int         true  "Conversation id"
// @Param        body  body  EventInput  true  "Note"
// @Success      201  {object}  okResponse{data=models.ConversationEvent}
// @Failure      400  {object}  errResponse
// @Failure      404  {object}  errResponse
// @Router       /inbox/conversations/{id}/events [post]
func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.inbox.AddEvent(r.Context(), clientID(r), id, in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, ev)
}

// WhatsAppStatus handles GET /whatsapp/status.
//
// @Summary      WhatsApp connection state
// @Tags         whatsapp
// @Produce      json
// @Success      200  {object}  okResponse{data=whatsapp.ConnectionState}
// @Failure      502  {object}  errResponse  "whatsapp_unreachable"
// @Failure      503  {object}  errResponse  "whatsapp_not_configured"
// @Router       /whatsapp/status [get]
func (h *Handler) WhatsAppStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.inbox.WhatsAppStatus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

// SendWhatsApp handles POST /whatsapp/send.
//
// @Summary      Send a WhatsApp text
// @Description  Sends text to the conversation's lead and records it as an outbound message.
// @Tags         whatsapp
// @Accept       json
// @Produce      json
// @Param        body  body  SendInput  true  "Message"
// @Success      201  {object}  okResponse{data=models.ConversationEvent}
// @Failure      400  {object}  errResponse
// @Failure      502  {object}  errResponse  "whatsapp_send_failed"
// @Failure      503  {object}  errResponse  "whatsapp_not_configured"
// @Router       /whatsapp/send [post]
func (h *Handler) SendWhatsApp(w http.ResponseWriter, r *http.Request) {
	var in SendInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.inbox.SendWhatsApp(r.Context(), clientID(r), in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, ev)
}

// WhatsAppWebhook handles POST /whatsapp/webhook. Evolution must be
// configured to call it with ?client_id= in the URL.
func (h *Handler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.inbox.HandleWebhook(r.Context(), clientID(r), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}
