package api

import (
	"net/http"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
)

// ListFolders handles GET /flow/folders.
//
// @Summary      List flow folders
// @Tags         flow
// @Produce      json
// @Success      200  {object}  okResponse{data=[]models.FlowFolder}
// @Router       /flow/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.flows.ListFolders(r.Context(), clientID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, folders)
}

// GetFolder handles GET /flow/folders/{id}.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.GetFolder(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, f)
}

// CreateFolder handles POST /flow/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var in NameInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.CreateFolder(r.Context(), clientID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// RenameFolder handles PUT /flow/folders/{id}.
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in NameInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.RenameFolder(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /flow/folders/{id}.
//
// @Summary      Delete an empty folder
// @Tags         flow
// @Param        id  path  int  true  "Folder id"
// @Success      200  {object}  okResponse
// @Failure      404  {object}  errResponse
// @Failure      409  {object}  errResponse  "folder_not_empty"
// @Router       /flow/folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.flows.DeleteFolder(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "folder deleted")
}

// CopyFolder handles POST /flow/folders/{id}/copy.
//
// @Summary      Duplicate a folder
// @Description  Copies the folder with every flow and step inside it. Step references are remapped to the new steps.
// @Tags         flow
// @Accept       json
// @Produce      json
// @Param        id    path  int        true   "Folder id"
// @Param        body  body  CopyInput  false  "Optional new name"
// @Success      201  {object}  okResponse{data=models.FlowFolder}
// @Failure      404  {object}  errResponse
// @Router       /flow/folders/{id}/copy [post]
func (h *Handler) CopyFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := decodeCopy(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.CopyFolder(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// decodeCopy reads an optional copy body; an empty body copies with defaults.
func decodeCopy(w http.ResponseWriter, r *http.Request) (CopyInput, error) {
	var in CopyInput
	if r.ContentLength == 0 {
		return in, nil
	}
	return in, decodeJSON(w, r, &in)
}

// ListFlows handles GET /flow/flows.
//
// @Summary      List flows
// @Tags         flow
// @Produce      json
// @Param        folder_id  query  string  false  "Only flows of this folder, or \"none\" for flows outside any folder"
// @Success      200  {object}  okResponse{data=[]models.Flow}
// @Router       /flow/flows [get]
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	var params flowservice.FlowListParams
	if r.URL.Query().Get("folder_id") == "none" {
		params.RootOnly = true
	} else {
		folderID, err := queryID(r, "folder_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		params.FolderID = folderID
	}
	flows, err := h.flows.ListFlows(r.Context(), clientID(r), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flows)
}

// GetFlow handles GET /flow/flows/{id}.
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.GetFlow(r.Context(), clientID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, f)
}

// CreateFlow handles POST /flow/flows.
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var in FlowInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.CreateFlow(r.Context(), clientID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// UpdateFlow handles PUT /flow/flows/{id}.
func (h *Handler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in FlowInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.UpdateFlow(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, f)
}

// DeleteFlow handles DELETE /flow/flows/{id}.
func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.flows.DeleteFlow(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "flow deleted")
}

// CopyFlow handles POST /flow/flows/{id}/copy.
//
// @Summary      Duplicate a flow
// @Description  Copies the flow and its steps. With folder_id the copy lands in that folder, otherwise next to the source.
// @Tags         flow
// @Accept       json
// @Produce      json
// @Param        id    path  int        true   "Flow id"
// @Param        body  body  CopyInput  false  "Optional name and target folder"
// @Success      201  {object}  okResponse{data=models.Flow}
// @Failure      404  {object}  errResponse
// @Router       /flow/flows/{id}/copy [post]
func (h *Handler) CopyFlow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := decodeCopy(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.CopyFlow(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// ExportFlow handles GET /flow/flows/{id}/export.
//
// @Summary      Export a flow document
// @Description  Renders the flow as YAML (default) or JSON. Steps reference each other by key.
// @Tags         flow
// @Produce      application/yaml
// @Produce      json
// @Param        id      path   int     true   "Flow id"
// @Param        format  query  string  false  "yaml or json"
// @Success      200
// @Header       200  {string}  ETag  "SHA-256 of the document"
// @Failure      404  {object}  errResponse
// @Router       /flow/flows/{id}/export [get]
func (h *Handler) ExportFlow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	exp, err := h.flows.ExportFlow(r.Context(), clientID(r), id, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", exp.ETag)
	if r.Header.Get("If-None-Match") == exp.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

// ImportFlow handles POST /flow/flows/import.
//
// @Summary      Import a flow document
// @Description  Creates a flow from a YAML or JSON document. The tenant must be given by header or query.
// @Tags         flow
// @Accept       application/yaml
// @Accept       json
// @Produce      json
// @Param        name       query  string  false  "Overrides the document name"
// @Param        folder_id  query  int     false  "Target folder"
// @Success      201  {object}  okResponse{data=models.Flow}
// @Failure      400  {object}  errResponse  "invalid_flow_document"
// @Router       /flow/flows/import [post]
func (h *Handler) ImportFlow(w http.ResponseWriter, r *http.Request) {
	folderID, err := queryID(r, "folder_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.flows.ImportFlow(r.Context(), clientID(r), data, flowservice.ImportInput{
		Name:     r.URL.Query().Get("name"),
		FolderID: folderID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// ListSteps handles GET /flow/flows/{id}/steps.
func (h *Handler) ListSteps(w http.ResponseWriter, r *http.Request) {
	flowID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	steps, err := h.flows.ListSteps(r.Context(), clientID(r), flowID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, steps)
}

// CreateStep handles POST /flow/flows/{id}/steps.
//
// @Summary      Add a step to a flow
// @Description  References must name steps of the same flow.
// @Tags         flow
// @Accept       json
// @Produce      json
// @Param        id    path  int        true  "Flow id"
// @Param        body  body  StepInput  true  "Step"
// @Success      201  {object}  okResponse{data=models.FlowStep}
// @Failure      400  {object}  errResponse  "invalid_step_reference"
// @Failure      404  {object}  errResponse
// @Router       /flow/flows/{id}/steps [post]
func (h *Handler) CreateStep(w http.ResponseWriter, r *http.Request) {
	flowID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in StepInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.flows.CreateStep(r.Context(), clientID(r), flowID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, st)
}

// UpdateStep handles PUT /flow/steps/{id}.
func (h *Handler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in StepInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.flows.UpdateStep(r.Context(), clientID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

// DeleteStep handles DELETE /flow/steps/{id}.
func (h *Handler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.flows.DeleteStep(r.Context(), clientID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "step deleted")
}

