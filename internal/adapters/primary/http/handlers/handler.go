package handlers

import (
	"aqi-prediction-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	predictionSvc *services.PredictionService
}

func New(predictionSvc *services.PredictionService) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	// Service
	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.GET("/model", h.GetModel)

	// Predictions
	r.POST("/predict", h.Predict)
	r.GET("/predict", h.PredictLive)
	r.GET("/predict/live", h.PredictLive)
	r.GET("/predict/custom", h.PredictCustom)
}
