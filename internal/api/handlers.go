package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"sustaindash/internal/engine"
	"sustaindash/internal/models"
	"sustaindash/internal/pipeline"
)

// StatusHeader tells API clients why a chart came back empty. The body is
// always a figure.
const StatusHeader = "X-Chart-Status"

var (
	errNoFile     = errors.New("no file uploaded")
	errBadDataURL = errors.New("malformed data URL")
)

// Handler serves the dashboard. Every upload is decoded into its own table;
// nothing is cached between requests.
type Handler struct {
	chart   *pipeline.Chart
	log     logr.Logger
	metrics http.Handler
}

// NewHandler builds the dashboard handler. metrics may be nil.
func NewHandler(chart *pipeline.Chart, log logr.Logger, metrics http.Handler) *Handler {
	return &Handler{chart: chart, log: log, metrics: metrics}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.GetIndex)
	e.GET("/healthz", h.GetHealth)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics))
	}

	api := e.Group("/api")
	api.POST("/chart", h.PostChart)
	api.POST("/chart/dataurl", h.PostChartDataURL)
}

// --- HANDLERS ---

type indexPage struct {
	Title    string
	Required []string
}

func (h *Handler) GetIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index", indexPage{
		Title:    "Upload Data and Visualize",
		Required: h.chart.Config.Required(),
	})
}

func (h *Handler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Health{Status: "ok"})
}

// PostChart accepts a multipart upload in field "file".
func (h *Handler) PostChart(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return h.emptyChart(c, "", errNoFile)
	}
	src, err := fh.Open()
	if err != nil {
		return h.emptyChart(c, fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return h.emptyChart(c, fh.Filename, err)
	}
	return h.render(c, fh.Filename, data)
}

// PostChartDataURL accepts {"contents": "data:...;base64,...", "filename": "..."}.
func (h *Handler) PostChartDataURL(c echo.Context) error {
	var req models.DataURLUpload
	if err := c.Bind(&req); err != nil {
		return h.emptyChart(c, "", fmt.Errorf("%w: %v", errBadDataURL, err))
	}
	if req.Contents == "" {
		return h.emptyChart(c, req.Filename, errNoFile)
	}
	data, err := DecodeDataURL(req.Contents)
	if err != nil {
		return h.emptyChart(c, req.Filename, err)
	}
	return h.render(c, req.Filename, data)
}

func (h *Handler) render(c echo.Context, name string, data []byte) error {
	log := h.log.WithValues("file", name, "bytes", len(data), "fingerprint", fmt.Sprintf("%016x", xxh3.Hash(data)))
	log.V(1).Info("upload received")

	fig, err := h.chart.Render(name, data)
	if err != nil {
		return h.emptyChart(c, name, err)
	}
	body, err := json.Marshal(fig)
	if err != nil {
		return h.emptyChart(c, name, err)
	}
	log.V(1).Info("chart rendered", "traces", len(fig.Data))
	c.Response().Header().Set(StatusHeader, "ok")
	return c.JSONBlob(http.StatusOK, body)
}

// emptyChart is the fail-open path: the page always gets a figure.
func (h *Handler) emptyChart(c echo.Context, name string, cause error) error {
	reason := Reason(cause)
	h.log.Info("serving empty chart", "file", name, "reason", reason, "error", cause.Error())
	c.Response().Header().Set(StatusHeader, "empty: "+reason)
	return c.JSON(http.StatusOK, models.EmptyFigure())
}

// Reason maps a pipeline error to a short token for StatusHeader.
func Reason(err error) string {
	switch {
	case errors.Is(err, errNoFile):
		return "no-file"
	case errors.Is(err, errBadDataURL):
		return "bad-request"
	case errors.Is(err, engine.ErrUnsupportedFormat):
		return "unsupported-format"
	case errors.Is(err, engine.ErrDecode):
		return "decode-error"
	case errors.Is(err, engine.ErrSchema):
		return "missing-columns"
	}
	return "error"
}

// DecodeDataURL returns the payload of a base64 data URL such as the ones
// browser upload widgets produce ("data:text/csv;base64,....").
func DecodeDataURL(s string) ([]byte, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: no payload separator", errBadDataURL)
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", errBadDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadDataURL, err)
	}
	return data, nil
}
