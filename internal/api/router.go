package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/crmservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
)

// Deps are the collaborators of the API router.
type Deps struct {
	CRM   *crmservice.Service
	Flows *flowservice.Service
	Inbox *inboxservice.Service

	AuthEnabled bool
	Token       string

	// Events, if non-nil, is mounted at GET /events behind auth and tenant
	// resolution.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.CRM, d.Flows, d.Inbox)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.Token))
	r.Use(TenantMiddleware())

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.ListContacts)
		r.Post("/", h.CreateContact)
		r.Get("/{id}", h.GetContact)
		r.Put("/{id}", h.UpdateContact)
		r.Delete("/{id}", h.DeleteContact)
		r.Put("/{id}/tags", h.SetContactTags)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Get("/{id}", h.GetTag)
		r.Put("/{id}", h.UpdateTag)
		r.Delete("/{id}", h.DeleteTag)
	})

	r.Route("/kanban", func(r chi.Router) {
		r.Get("/boards", h.ListBoards)
		r.Post("/boards", h.CreateBoard)
		r.Get("/boards/{id}", h.GetBoard)
		r.Put("/boards/{id}", h.RenameBoard)
		r.Delete("/boards/{id}", h.DeleteBoard)
		r.Post("/boards/{id}/columns", h.CreateColumn)
		r.Put("/columns/{id}", h.UpdateColumn)
		r.Delete("/columns/{id}", h.DeleteColumn)
		r.Post("/columns/{id}/cards", h.CreateCard)
		r.Put("/cards/{id}", h.UpdateCard)
		r.Delete("/cards/{id}", h.DeleteCard)
		r.Post("/cards/{id}/move", h.MoveCard)
	})

	r.Route("/flow", func(r chi.Router) {
		r.Get("/folders", h.ListFolders)
		r.Post("/folders", h.CreateFolder)
		r.Get("/folders/{id}", h.GetFolder)
		r.Put("/folders/{id}", h.RenameFolder)
		r.Delete("/folders/{id}", h.DeleteFolder)
		r.Post("/folders/{id}/copy", h.CopyFolder)

		r.Get("/flows", h.ListFlows)
		r.Post("/flows", h.CreateFlow)
		r.Post("/flows/import", h.ImportFlow)
		r.Get("/flows/{id}", h.GetFlow)
		r.Put("/flows/{id}", h.UpdateFlow)
		r.Delete("/flows/{id}", h.DeleteFlow)
		r.Post("/flows/{id}/copy", h.CopyFlow)
		r.Get("/flows/{id}/export", h.ExportFlow)
		r.Get("/flows/{id}/steps", h.ListSteps)
		r.Post("/flows/{id}/steps", h.CreateStep)

		r.Put("/steps/{id}", h.UpdateStep)
		r.Delete("/steps/{id}", h.DeleteStep)
	})

	r.Route("/inbox", func(r chi.Router) {
		r.Get("/stats", h.InboxStats)
		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", h.CreateConversation)
		r.Get("/conversations/{id}", h.GetConversation)
		r.Patch("/conversations/{id}", h.UpdateConversation)
		r.Post("/conversations/{id}/read", h.MarkRead)
		r.Get("/conversations/{id}/events", h.ListEvents)
		r.Post("/conversations/{id}/events", h.AddEvent)
	})

	r.Route("/whatsapp", func(r chi.Router) {
		r.Get("/status", h.WhatsAppStatus)
		r.Post("/send", h.SendWhatsApp)
		r.Post("/webhook", h.WhatsAppWebhook)
	})

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
