package api

import (
	"context"
	"sync"

	"PolyRadar/internal/usecase"
	xhttp "PolyRadar/pkg/http"
	xlogger "PolyRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RadarHandler exposes the engine's live state over HTTP. When an
// executor is attached it also accepts manual trade requests.
type RadarHandler struct {
	logger   *xlogger.Logger
	radar    *usecase.Radar
	executor *usecase.Executor

	mu     sync.Mutex
	cancel chan struct{}
}

func NewRadarHandler(logger *xlogger.Logger, radar *usecase.Radar, executor *usecase.Executor) *RadarHandler {
	return &RadarHandler{logger: logger, radar: radar, executor: executor}
}

func (h *RadarHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/candles", h.Candles)
	g.GET("/market", h.Market)
	g.GET("/positions", h.Positions)
	g.GET("/session", h.Session)
	g.GET("/alert", h.Alert)
	g.GET("/health", h.Health)
	g.GET("/logs", h.Logs)
	g.POST("/execute", h.Execute)
	g.POST("/cancel", h.CancelExecution)
}

func (h *RadarHandler) Signal(c echo.Context) error {
	sig := h.radar.CurrentSignal()
	if sig == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "no signal evaluated yet"})
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *RadarHandler) Candles(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	candles, source := h.radar.Candles()
	if limit > 0 && limit < len(candles) {
		candles = candles[len(candles)-limit:]
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"source":  source,
		"candles": candles,
	})
}

func (h *RadarHandler) Market(c echo.Context) error {
	market := h.radar.Market()
	if market == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "no market resolved yet"})
	}
	return xhttp.SuccessResponse(c, market)
}

func (h *RadarHandler) Positions(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.radar.Positions())
}

func (h *RadarHandler) Session(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.radar.Session().Stats())
}

func (h *RadarHandler) Alert(c echo.Context) error {
	alert := h.radar.LastAlert()
	if alert == nil {
		return xhttp.NoContentResponse(c)
	}
	return xhttp.SuccessResponse(c, alert)
}

// Logs returns error entries aggregated by the log collector since
// its last flush.
func (h *RadarHandler) Logs(c echo.Context) error {
	logs := h.logger.RecentLogs()
	if logs == nil {
		logs = []xlogger.AggregatedLogEntry{}
	}
	return xhttp.SuccessResponse(c, logs)
}

type executeRequest struct {
	Shares float64 `json:"shares" default:"10" validate:"gt=0,lte=10000"`
}

// Execute opens a position for the current signal and monitors it in
// the background. One execution at a time.
func (h *RadarHandler) Execute(c echo.Context) error {
	if h.executor == nil {
		return xhttp.ForbiddenResponse(c, map[string]string{"error": "trading is disabled"})
	}

	req := &executeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig := h.radar.CurrentSignal()
	if sig == nil {
		return xhttp.BadRequestResponse(c, map[string]string{"error": "no signal evaluated yet"})
	}
	if !sig.Actionable() {
		return xhttp.BadRequestResponse(c, map[string]string{
			"error": "signal not actionable",
		})
	}
	market := h.radar.Market()
	if market == nil {
		return xhttp.BadRequestResponse(c, map[string]string{"error": "no market resolved yet"})
	}

	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		return xhttp.BadRequestResponse(c, map[string]string{"error": "execution already in progress"})
	}
	cancel := make(chan struct{})
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			h.cancel = nil
			h.mu.Unlock()
		}()
		if _, err := h.executor.Execute(context.Background(), sig, market, req.Shares, cancel); err != nil {
			h.logger.Error("execution failed", xlogger.Error(err))
		}
	}()

	return xhttp.AcceptedResponse(c, map[string]interface{}{
		"status":    "submitted",
		"direction": sig.Direction,
		"shares":    req.Shares,
	})
}

// CancelExecution requests a manual exit of the running execution.
func (h *RadarHandler) CancelExecution(c echo.Context) error {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel == nil {
		return xhttp.BadRequestResponse(c, map[string]string{"error": "no execution in progress"})
	}
	close(cancel)
	return xhttp.SuccessResponse(c, map[string]string{"status": "cancel requested"})
}

func (h *RadarHandler) Health(c echo.Context) error {
	healthy := h.radar.Healthy()
	status := map[string]interface{}{
		"healthy": healthy,
	}
	if market := h.radar.Market(); market != nil {
		status["market"] = market.Slug
	}
	if sig := h.radar.CurrentSignal(); sig != nil {
		status["phase"] = sig.Phase
		status["last_signal"] = sig.Timestamp
	}
	if healthy {
		return xhttp.SuccessResponse(c, status)
	}
	return xhttp.ServiceUnavailableResponse(c, status)
}
