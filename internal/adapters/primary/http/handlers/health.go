package handlers

import (
	"net/http"

	"aqi-prediction-service/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
)

const serviceName = "aqi-prediction-service"

func (h *Handler) Index(c *gin.Context) {
	resp := dto.IndexResponse{
		Service: serviceName,
		Endpoints: map[string]string{
			"health":         "GET /health",
			"model":          "GET /model",
			"predict":        "POST /predict",
			"predict_custom": "GET /predict/custom?<feature>=<value>",
			"predict_live":   "GET /predict/live?lat=<lat>&lon=<lon>",
		},
	}
	if info, err := h.predictionSvc.Model(); err == nil {
		resp.Model = info.Name
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(c *gin.Context) {
	info, err := h.predictionSvc.Model()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{
			Status:      "model_not_loaded",
			ModelLoaded: false,
		})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:      "ok",
		ModelLoaded: true,
		Model:       info.Name,
	})
}

func (h *Handler) GetModel(c *gin.Context) {
	info, err := h.predictionSvc.Model()
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelResponse(info))
}
