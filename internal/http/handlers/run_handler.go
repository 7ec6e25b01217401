// README: Run archive handlers for list/get.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crowdship/internal/modules/runs"
)

type RunHandler struct {
	archive *runs.Store
}

func NewRunHandler(archive *runs.Store) *RunHandler {
	return &RunHandler{archive: archive}
}

func (h *RunHandler) List(c *gin.Context) {
	if h.archive == nil {
		writeError(c, http.StatusServiceUnavailable, "run archive not configured")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	list, err := h.archive.List(c.Request.Context(), limit)
	if err != nil {
		writeRunError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, r := range list {
		out = append(out, runResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (h *RunHandler) Get(c *gin.Context) {
	if h.archive == nil {
		writeError(c, http.StatusServiceUnavailable, "run archive not configured")
		return
	}
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing run id")
		return
	}

	r, err := h.archive.Get(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse(r))
}
