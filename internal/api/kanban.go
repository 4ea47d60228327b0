package api

import "net/http"

// ListBoards handles GET /kanban/boards.
//
// @Summary      List kanban boards
// @Tags         kanban
// @Produce      json
// @Success      200  {object}  okResponse{data=[]models.KanbanBoard}
// @Router       /kanban/boards [get]
func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.crm.ListBoards(r.Context(), clientID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, boards)
}

// GetBoard handles GET /kanban/boards/{id}.
//
// @Summary      Get a board with its columns and cards
// @Tags         kanban
// @Produce      json
// @Param        id  path  int  true  "Board id"
// @Success      200  {object}  okResponse{data=models.KanbanBoard}
// @Failure      404  {object}  errResponse
// @Router       /kanban/boards/{id} [get]
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.crm.GetBoard(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, b)
}

// CreateBoard handles POST /kanban/boards.
//
// @Summary      Create a board
// @Description  Optional columns are created in the given order.
// @Tags         kanban
// @Accept       json
// @Produce      json
// @Param        body  body  BoardInput  true  "Board"
// @Success      201  {object}  okResponse{data=models.KanbanBoard}
// @Failure      400  {object}  errResponse
// @Router       /kanban/boards [post]
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var in BoardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.crm.CreateBoard(r.Context(), clientID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, b)
}

// RenameBoard handles PUT /kanban/boards/{id}.
func (h *Handler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in BoardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.crm.RenameBoard(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, b)
}

// DeleteBoard handles DELETE /kanban/boards/{id}.
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.crm.DeleteBoard(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "board deleted")
}

// CreateColumn handles POST /kanban/boards/{id}/columns.
func (h *Handler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in ColumnInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	col, err := h.crm.CreateColumn(r.Context(), clientID(r), boardID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, col)
}

// UpdateColumn handles PUT /kanban/columns/{id}.
//
// @Summary      Update a column
// @Description  A position reorders the column within its board; siblings shift to keep positions contiguous.
// @Tags         kanban
// @Accept       json
// @Produce      json
// @Param        id    path  int          true  "Column id"
// @Param        body  body  ColumnInput  true  "Column"
// @Success      200  {object}  okResponse{data=models.KanbanColumn}
// @Failure      404  {object}  errResponse
// @Router       /kanban/columns/{id} [put]
func (h *Handler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in ColumnInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	col, err := h.crm.UpdateColumn(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, col)
}

// DeleteColumn handles DELETE /kanban/columns/{id}.
func (h *Handler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.crm.DeleteColumn(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "column deleted")
}

// CreateCard handles POST /kanban/columns/{id}/cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	columnID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in CardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	card, err := h.crm.CreateCard(r.Context(), clientID(r), columnID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, card)
}

// UpdateCard handles PUT /kanban/cards/{id}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in CardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	card, err := h.crm.UpdateCard(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /kanban/cards/{id}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.crm.DeleteCard(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "card deleted")
}

// MoveCard handles POST /kanban/cards/{id}/move.
//
// @Summary      Move a card
// @Description  Moves a card to a column of the same board at the given position.
// @Tags         kanban
// @Accept       json
// @Produce      json
// @Param        id    path  int        true  "Card id"
// @Param        body  body  MoveInput  true  "Target"
// @Success      200  {object}  okResponse{data=models.KanbanCard}
// @Failure      400  {object}  errResponse  "invalid_card_move"
// @Failure      404  {object}  errResponse
// @Router       /kanban/cards/{id}/move [post]
func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in MoveInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	card, err := h.crm.MoveCard(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, card)
}
