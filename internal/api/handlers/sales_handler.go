package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

type SalesImporter interface {
	Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

type SalesHandler struct {
	importer       SalesImporter
	maxUploadBytes int64
}

func NewSalesHandler(importer SalesImporter, maxUploadBytes int64) *SalesHandler {
	return &SalesHandler{importer: importer, maxUploadBytes: maxUploadBytes}
}

// Upload handles multipart sales uploads in the "file" field
func (h *SalesHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		badRequest(c, "file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("failed to open uploaded file")
		badRequest(c, "could not read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
