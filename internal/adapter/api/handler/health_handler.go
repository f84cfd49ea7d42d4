package handler

import (
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"google.golang.org/api/iterator"
)

type HealthHandler struct {
	firestoreClient *firestore.Client
}

func NewHealthHandler(firestoreClient *firestore.Client) *HealthHandler {
	return &HealthHandler{
		firestoreClient: firestoreClient,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) CheckStoreHealth(c echo.Context) error {
	_, err := h.firestoreClient.Collections(c.Request().Context()).Next()
	if err != nil && err != iterator.Done {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firestore connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firestore connected successfully",
	})
}
