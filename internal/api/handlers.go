package api

import (
	"net/http"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/crmservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
)

// Handler holds HTTP handlers for the REST API.
type Handler struct {
	crm   *crmservice.Service
	flows *flowservice.Service
	inbox *inboxservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(crm *crmservice.Service, flows *flowservice.Service, inbox *inboxservice.Service) *Handler {
	return &Handler{crm: crm, flows: flows, inbox: inbox}
}

// ListContacts handles GET /contacts.
//
// @Summary      List contacts
// @Description  Returns a page of the tenant's contacts, optionally filtered by name or phone.
// @Tags         contacts
// @Produce      json
// @Param        X-Client-Id  header  int     true   "Tenant id"
// @Param        q            query   string  false  "Substring of name or phone"
// @Param        limit        query   int     false  "Max results (default 50, max 200)"
// @Param        offset       query   int     false  "Pagination offset"
// @Success      200  {object}  okResponse{data=ContactList}
// @Failure      400  {object}  errResponse
// @Router       /contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	items, total, err := h.crm.ListContacts(r.Context(), clientID(r), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ContactList{Items: items, Total: total})
}

// GetContact handles GET /contacts/{id}.
//
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Param        id  path  int  true  "Contact id"
// @Success      200  {object}  okResponse{data=models.Contact}
// @Failure      404  {object}  errResponse
// @Router       /contacts/{id} [get]
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.crm.GetContact(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// CreateContact handles POST /contacts.
//
// @Summary      Create a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        body  body  ContactInput  true  "Contact"
// @Success      201  {object}  okResponse{data=models.Contact}
// @Failure      400  {object}  errResponse
// @Failure      409  {object}  errResponse
// @Router       /contacts [post]
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var in ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.crm.CreateContact(r.Context(), clientID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

// UpdateContact handles PUT /contacts/{id}.
//
// @Summary      Update a contact
// @Description  Replaces name, phone and notes. Tags are replaced only when tag_ids is present.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        id    path  int           true  "Contact id"
// @Param        body  body  ContactInput  true  "Contact"
// @Success      200  {object}  okResponse{data=models.Contact}
// @Failure      404  {object}  errResponse
// @Failure      409  {object}  errResponse
// @Router       /contacts/{id} [put]
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.crm.UpdateContact(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// DeleteContact handles DELETE /contacts/{id}.
//
// @Summary      Delete a contact
// @Tags         contacts
// @Param        id  path  int  true  "Contact id"
// @Success      200  {object}  okResponse
// @Failure      404  {object}  errResponse
// @Router       /contacts/{id} [delete]
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.crm.DeleteContact(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "contact deleted")
}

// SetContactTags handles PUT /contacts/{id}/tags.
//
// @Summary      Replace a contact's tags
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        id    path  int        true  "Contact id"
// @Param        body  body  TagsInput  true  "Tag ids"
// @Success      200  {object}  okResponse{data=models.Contact}
// @Failure      400  {object}  errResponse
// @Failure      404  {object}  errResponse
// @Router       /contacts/{id}/tags [put]
func (h *Handler) SetContactTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in TagsInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.crm.SetContactTags(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// ListTags handles GET /tags.
//
// @Summary      List tags
// @Tags         tags
// @Produce      json
// @Success      200  {object}  okResponse{data=[]models.Tag}
// @Router       /tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.crm.ListTags(r.Context(), clientID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tags)
}

// GetTag handles GET /tags/{id}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.crm.GetTag(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// CreateTag handles POST /tags.
//
// @Summary      Create a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        body  body  TagInput  true  "Tag"
// @Success      201  {object}  okResponse{data=models.Tag}
// @Failure      409  {object}  errResponse
// @Router       /tags [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in TagInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.crm.CreateTag(r.Context(), clientID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

// UpdateTag handles PUT /tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in TagInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.crm.UpdateTag(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// DeleteTag handles DELETE /tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.crm.DeleteTag(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "tag deleted")
}
