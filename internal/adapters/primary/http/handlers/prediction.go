package handlers

import (
	"net/http"
	"strconv"

	"aqi-prediction-service/internal/adapters/primary/http/dto"
	"aqi-prediction-service/internal/core/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) Predict(c *gin.Context) {
	values, err := dto.DecodeFeatures(c.Request.Body)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	result, err := h.predictionSvc.Predict(c.Request.Context(), values, domain.SourceRequest)
	if err != nil {
		logPredictionError(c, err, domain.SourceRequest)
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionResponse(result))
}

func (h *Handler) PredictCustom(c *gin.Context) {
	raw := make(map[string]string)
	for name, vals := range c.Request.URL.Query() {
		if len(vals) == 0 {
			continue
		}
		raw[name] = vals[len(vals)-1]
	}

	values, err := domain.ParseFeatureValues(raw)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	result, err := h.predictionSvc.Predict(c.Request.Context(), values, domain.SourceQuery)
	if err != nil {
		logPredictionError(c, err, domain.SourceQuery)
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionResponse(result))
}

func (h *Handler) PredictLive(c *gin.Context) {
	loc, err := locationFromQuery(c, h.predictionSvc.DefaultLocation())
	if err != nil {
		mapDomainError(c, err)
		return
	}

	result, err := h.predictionSvc.PredictLive(c.Request.Context(), loc)
	if err != nil {
		logPredictionError(c, err, domain.SourceLive)
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionResponse(result))
}

// locationFromQuery returns nil when neither lat nor lon is given. Giving
// only one of them is an error.
func locationFromQuery(c *gin.Context, fallback domain.Location) (*domain.Location, error) {
	latStr, hasLat := c.GetQuery("lat")
	lonStr, hasLon := c.GetQuery("lon")
	if !hasLat && !hasLon {
		return nil, nil
	}
	if !hasLat || !hasLon {
		return nil, domain.ErrInvalidLocation
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, domain.ErrInvalidLocation
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, domain.ErrInvalidLocation
	}

	loc := &domain.Location{Latitude: lat, Longitude: lon, Name: c.Query("name")}
	if loc.Key() == fallback.Key() && loc.Name == "" {
		loc.Name = fallback.Name
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return loc, nil
}

func logPredictionError(c *gin.Context, err error, source domain.PredictionSource) {
	entry := log.WithError(err).WithFields(log.Fields{
		"source":     source,
		"request_id": c.GetString("request_id"),
	})
	switch status := statusFor(err); {
	case status >= http.StatusInternalServerError:
		entry.Error("prediction failed")
	default:
		entry.Debug("prediction rejected")
	}
}
