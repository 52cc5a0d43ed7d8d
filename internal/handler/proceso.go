package handler

// proceso.go — the three processing endpoints: invoice image, free text and
// voice note. Each one returns candidates for the client to review; the
// ledger only changes through PUT /api/stock.

import (
	"net/http"

	"github.com/giulianopoliti/stockai/internal/dto"
	"github.com/giulianopoliti/stockai/internal/service"

	"github.com/gin-gonic/gin"
)

type ProcesoHandler struct {
	proceso service.ProcesoService
}

func NewProcesoHandler(proceso service.ProcesoService) *ProcesoHandler {
	return &ProcesoHandler{proceso: proceso}
}

// ProcessInvoice handles POST /process-invoice (multipart, field "file").
func (h *ProcesoHandler) ProcessInvoice(c *gin.Context) {
	documento, mimeType, _, ok := leerArchivo(c, "file")
	if !ok {
		return
	}

	resp, err := h.proceso.ProcesarFactura(c.Request.Context(), documento, mimeType)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessText handles POST /process-text.
func (h *ProcesoHandler) ProcessText(c *gin.Context) {
	var req dto.TextoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.proceso.ProcesarTexto(c.Request.Context(), req.Texto)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessAudio handles POST /process-audio (multipart, field "audio").
func (h *ProcesoHandler) ProcessAudio(c *gin.Context) {
	audio, mimeType, nombre, ok := leerArchivo(c, "audio")
	if !ok {
		return
	}
	if nombre == "" {
		nombre = "nota-de-voz.webm"
	}

	resp, err := h.proceso.ProcesarAudio(c.Request.Context(), audio, mimeType, nombre)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
