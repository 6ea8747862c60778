package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/macrosync/backend/internal/service"
)

// MaxImageBytes caps the size of an uploaded food photo
const MaxImageBytes = 10 << 20

// AnalyzeFood estimates the nutrition of an uploaded photo. The image is
// either the multipart field "image" or the raw request body.
func (h *Handler) AnalyzeFood(c *gin.Context) {
	image, err := readImage(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	analysis, err := h.svc.AnalyzeFood(c.Request.Context(), image)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImage) {
			badRequest(c, err)
			return
		}
		writeGatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func readImage(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("missing image field: %w", err)
		}
		if fh.Size > MaxImageBytes {
			return nil, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, service.ErrInvalidImage
	}
	return data, nil
}
