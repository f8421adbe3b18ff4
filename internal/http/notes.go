package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"notes-api/internal/service"
)

type noteListResponse struct {
	Notes []NoteResponse `json:"notes"`
	Total int            `json:"total"`
}

type exportListResponse struct {
	Exports []StorageObjectResponse `json:"exports"`
	Total   int                     `json:"total"`
}

// noteID reads the id query parameter. present is false when the parameter is absent or empty.
func noteID(c *gin.Context) (id int64, present bool, ok bool) {
	raw := strings.TrimSpace(c.Query("id"))
	if raw == "" {
		return 0, false, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, msgInvalidNoteID)
		return 0, true, false
	}
	return id, true, true
}

func (h *Handler) getNotes(c *gin.Context) {
	id, present, ok := noteID(c)
	if !ok {
		return
	}
	if present {
		h.getNote(c, id)
		return
	}

	notes, err := h.notes.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]NoteResponse, len(notes))
	for i := range notes {
		resp[i] = noteToResponse(notes[i])
	}
	respond(c, http.StatusOK, "notes retrieved", noteListResponse{Notes: resp, Total: len(resp)})
}

func (h *Handler) getNote(c *gin.Context, id int64) {
	note, err := h.notes.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "note retrieved", noteToResponse(*note))
}

func (h *Handler) createNote(c *gin.Context) {
	_, present, ok := noteID(c)
	if !ok {
		return
	}
	if present {
		respondError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var in service.NoteInput
	if !bindJSON(c, &in) {
		return
	}

	note, err := h.notes.Create(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "note created successfully", noteToResponse(*note))
}

func (h *Handler) updateNote(c *gin.Context) {
	id, present, ok := noteID(c)
	if !ok {
		return
	}
	if !present {
		respondError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	// existence and ownership are answered before the body is read
	if _, err := h.notes.Get(c.Request.Context(), currentUserID(c), id); err != nil {
		h.fail(c, err)
		return
	}

	var in service.NoteUpdateInput
	if !bindJSON(c, &in) {
		return
	}

	note, err := h.notes.Update(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "note updated successfully", noteToResponse(*note))
}

func (h *Handler) deleteNote(c *gin.Context) {
	id, present, ok := noteID(c)
	if !ok {
		return
	}
	if !present {
		respondError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if err := h.notes.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "note deleted successfully", nil)
}

func (h *Handler) createExport(c *gin.Context) {
	export, err := h.exports.Export(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "notes exported", exportToResponse(export))
}

func (h *Handler) listExports(c *gin.Context) {
	objects, err := h.exports.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	respond(c, http.StatusOK, "exports retrieved", exportListResponse{Exports: resp, Total: len(resp)})
}
