package api

import (
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"sustaindash/internal/models"
)

//go:embed index.tmpl.html
var indexHTML string

// ServerConfig controls the echo instance.
type ServerConfig struct {
	// MaxUpload is an echo body limit, e.g. "32M".
	MaxUpload string
	// Rate is the sustained API requests per second allowed per client IP.
	Rate float64
	// Burst defaults to twice Rate.
	Burst int
}

// NewServer builds the echo instance with middleware, renderer, JSON codec
// and the handler's routes. It owns no global state.
func NewServer(cfg ServerConfig, h *Handler, log logr.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(glog.WARN)
	e.JSONSerializer = jsonSerializer{}
	e.Renderer = &templateRenderer{tmpl: template.Must(template.New("index").Parse(indexHTML))}
	e.HTTPErrorHandler = chartErrorHandler(e, log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.V(1).Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	if cfg.MaxUpload != "" {
		e.Use(middleware.BodyLimit(cfg.MaxUpload))
	}
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(2*cfg.Rate))
		}
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool { return !isChartPath(c) },
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Rate),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	h.RegisterRoutes(e)
	return e
}

func isChartPath(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/chart")
}

// chartErrorHandler keeps chart endpoints fail-open: errors raised by
// middleware (body limit, rate limit, panics) still answer with an empty
// figure. Other routes use echo's default handling.
func chartErrorHandler(e *echo.Echo, log logr.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed || !isChartPath(c) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		log.Info("chart request rejected", "uri", c.Request().RequestURI, "status", code, "error", err.Error())
		c.Response().Header().Set(StatusHeader, "empty: http-"+strconv.Itoa(code))
		if err := c.JSON(code, models.EmptyFigure()); err != nil {
			log.Error(err, "write empty chart")
		}
	}
}

// --- RENDERING ---

type templateRenderer struct {
	tmpl *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// jsonSerializer swaps echo's encoding/json codec for goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", ute.Type, ute.Value, ute.Field, ute.Offset)).SetInternal(err)
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	}
	return err
}
