// Package dashboard renders a single HTML page over the prediction API.
package dashboard

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"aqi-prediction-service/internal/adapters/primary/http/dto"
	"aqi-prediction-service/internal/apiclient"
	"aqi-prediction-service/internal/core/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

// API is the subset of the prediction API the dashboard calls.
type API interface {
	Model(ctx context.Context) (*dto.ModelResponse, error)
	Predict(ctx context.Context, values map[string]float64) (*dto.PredictionResponse, error)
	PredictLive(ctx context.Context, loc *domain.Location) (*dto.PredictionResponse, error)
}

type Options struct {
	APIURL          string
	RefreshInterval time.Duration
	HistorySize     int
	SampleMode      bool
}

type Dashboard struct {
	api     API
	opts    Options
	history *History
	now     func() time.Time
}

func New(api API, opts Options) *Dashboard {
	return &Dashboard{
		api:     api,
		opts:    opts,
		history: NewHistory(opts.HistorySize),
		now:     time.Now,
	}
}

// Template parses the embedded page with its helper functions.
func Template() (*template.Template, error) {
	return template.New("index.html").Funcs(template.FuncMap{
		"categoryClass": categoryClass,
		"fmtFloat":      fmtFloat,
		"fmtTime":       fmtTime,
	}).ParseFS(templateFS, "templates/index.html")
}

// RegisterRoutes installs the page template and the dashboard routes.
func (d *Dashboard) RegisterRoutes(router *gin.Engine) error {
	tmpl, err := Template()
	if err != nil {
		return fmt.Errorf("parse dashboard template: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", d.Index)
	router.POST("/custom", d.Custom)
	router.GET("/history", d.History)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return nil
}

type reading struct {
	Name  string
	Value float64
}

type formField struct {
	Name        string
	Description string
	Required    bool
	Value       string
}

type pageData struct {
	APIURL         string
	RefreshSeconds int
	Current        *dto.PredictionResponse
	Sample         bool
	LiveError      string
	Readings       []reading
	History        []Entry
	Fields         []formField
	ModelName      string
	ModelError     string
	Custom         *dto.PredictionResponse
	CustomError    string
}

func (d *Dashboard) Index(c *gin.Context) {
	data := d.basePage(c.Request.Context(), nil)
	d.loadLive(c.Request.Context(), &data)
	data.History = d.history.Recent()
	c.HTML(http.StatusOK, "index.html", data)
}

// Custom submits the form's feature values through POST /predict.
func (d *Dashboard) Custom(c *gin.Context) {
	ctx := c.Request.Context()
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	data := d.basePage(ctx, c.Request.PostForm)

	values, err := formValues(data.Fields)
	if err != nil {
		data.CustomError = err.Error()
	} else if data.ModelError != "" {
		data.CustomError = "model schema unavailable: " + data.ModelError
	} else {
		resp, err := d.api.Predict(ctx, values)
		if err != nil {
			log.WithError(err).Warn("custom prediction failed")
			data.CustomError = describeError(err)
		} else {
			data.Custom = resp
			d.history.Add(Entry{
				Time:       d.now(),
				Prediction: resp.Prediction,
				Category:   resp.Category,
				Source:     resp.Source,
			})
		}
	}

	d.loadLive(ctx, &data)
	data.History = d.history.Recent()
	c.HTML(http.StatusOK, "index.html", data)
}

func (d *Dashboard) History(c *gin.Context) {
	c.JSON(http.StatusOK, d.history.Recent())
}

func (d *Dashboard) basePage(ctx context.Context, form map[string][]string) pageData {
	data := pageData{
		APIURL:         d.opts.APIURL,
		RefreshSeconds: int(d.opts.RefreshInterval / time.Second),
	}

	m, err := d.api.Model(ctx)
	if err != nil {
		log.WithError(err).Warn("load model schema failed")
		data.ModelError = describeError(err)
		return data
	}

	data.ModelName = m.Name
	for _, f := range m.Features {
		field := formField{Name: f.Name, Description: f.Description, Required: f.Required}
		if vals := form[f.Name]; len(vals) > 0 {
			field.Value = strings.TrimSpace(vals[0])
		}
		data.Fields = append(data.Fields, field)
	}
	return data
}

func (d *Dashboard) loadLive(ctx context.Context, data *pageData) {
	live, err := d.api.PredictLive(ctx, nil)
	if err != nil {
		log.WithError(err).Warn("live prediction failed")
		if !d.opts.SampleMode {
			data.LiveError = describeError(err)
			return
		}
		live = samplePrediction()
		data.Sample = true
	}

	data.Current = live
	data.Readings = sortedReadings(live.Inputs)
	d.history.AddIfChanged(Entry{
		Time:       d.now(),
		Prediction: live.Prediction,
		Category:   live.Category,
		Source:     live.Source,
		Sample:     data.Sample,
		ObservedAt: live.ObservedAt,
	})
}

// formValues converts filled-in fields to numbers. Blank fields are left
// out so the API reports missing required features itself.
func formValues(fields []formField) (map[string]float64, error) {
	values := make(map[string]float64, len(fields))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.Value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s must be a number", f.Name)
		}
		values[f.Name] = v
	}
	return values, nil
}

func describeError(err error) string {
	if status := apiclient.StatusCode(err); status != 0 {
		return err.Error()
	}
	return "prediction API unreachable: " + err.Error()
}

func sortedReadings(inputs map[string]float64) []reading {
	out := make([]reading, 0, len(inputs))
	for name, v := range inputs {
		out = append(out, reading{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func categoryClass(label string) string {
	switch strings.ToLower(label) {
	case "good":
		return "good"
	case "moderate":
		return "moderate"
	case "unhealthy for sensitive groups":
		return "sensitive"
	case "unhealthy":
		return "unhealthy"
	case "very unhealthy":
		return "very-unhealthy"
	case "hazardous":
		return "hazardous"
	default:
		return "unknown"
	}
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
