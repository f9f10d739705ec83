package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"orangecat/internal/models"
	"orangecat/internal/services"
)

// multipartOverhead allows for form boundaries and headers around the file.
const multipartOverhead = 1 << 20

type MediaHandler struct {
	media services.IMediaService
}

func NewMediaHandler(media services.IMediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Avatar handles POST /api/avatar (multipart field "file").
func (h *MediaHandler) Avatar(c *gin.Context) {
	up, ok := h.upload(c, models.Avatar)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicUrl": up.PublicURL})
}

// Banner handles POST /api/banner (multipart field "file").
func (h *MediaHandler) Banner(c *gin.Context) {
	up, ok := h.upload(c, models.Banner)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicUrl": up.PublicURL, "size": up.Size})
}

func (h *MediaHandler) upload(c *gin.Context, kind models.MediaKind) (models.Upload, bool) {
	userID, token, ok := currentUser(c)
	if !ok {
		return models.Upload{}, false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, kind.MaxSize+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, models.ErrFileTooLarge)
			return models.Upload{}, false
		}
		handleError(c, models.Invalid("file", "No file provided"))
		return models.Upload{}, false
	}
	if fh.Size > kind.MaxSize {
		handleError(c, models.ErrFileTooLarge)
		return models.Upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return models.Upload{}, false
	}
	defer f.Close()

	up, err := h.media.Upload(c.Request.Context(), token, userID, kind, f)
	if err != nil {
		handleError(c, err)
		return models.Upload{}, false
	}
	return up, true
}
