package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/macrosync/backend/internal/imagery"
	"github.com/pageza/macrosync/backend/internal/model"
)

// ImageResponse describes the resolved image of a meal
type ImageResponse struct {
	URL         string `json:"url"`
	FallbackURL string `json:"fallbackUrl"`
	Query       string `json:"query"`
	Seed        int    `json:"seed"`
}

// ResolveImage maps a meal name to its deterministic image URL
func (h *Handler) ResolveImage(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		badRequest(c, errors.New("name is required"))
		return
	}

	meal := model.Meal{Name: name, ImagePromptKeywords: c.Query("keywords")}
	contextKey := c.Query("contextKey")

	c.JSON(http.StatusOK, ImageResponse{
		URL:         imagery.Resolve(meal, contextKey),
		FallbackURL: imagery.FallbackURL(meal),
		Query:       imagery.Query(meal),
		Seed:        imagery.Seed(meal.Name, contextKey),
	})
}
