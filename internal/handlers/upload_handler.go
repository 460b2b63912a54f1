package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/media"
	"github.com/gin-gonic/gin"
)

// multipart framing allowance on top of the file limit
const formOverhead = 1 << 20

// UploadFile handles POST /v1/admin/uploads
// It saves the image to the media store and returns its public URL.
func (h *Handlers) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Media.MaxBytes()+formOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.respondError(c, media.ErrTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > h.Media.MaxBytes() {
		h.respondError(c, media.ErrTooLarge)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer src.Close()

	img, err := h.Media.Save(file.Filename, src)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":  img.URL,
		"path": img.Path,
		"name": img.Name,
	})
}
