package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/leave-calendar-api/pkg/export"
	"github.com/noah-isme/leave-calendar-api/pkg/response"
)

type exportDownloads interface {
	ParseToken(token string) (string, error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler serves rendered exports behind signed tokens.
type ExportHandler struct {
	downloads exportDownloads
}

// NewExportHandler constructs the handler.
func NewExportHandler(downloads exportDownloads) *ExportHandler {
	return &ExportHandler{downloads: downloads}
}

// Download godoc
// @Summary Download a rendered export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	relPath, err := h.downloads.ParseToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.downloads.Open(relPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	name := filepath.Base(relPath)
	c.DataFromReader(http.StatusOK, info.Size(), export.ContentTypeForFile(name), file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}
