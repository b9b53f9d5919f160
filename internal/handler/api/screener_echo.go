package api

import (
	"net/http"
	"time"

	models "StockPulse/internal/domain/models"
	svcmetrics "StockPulse/internal/service/metrics"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/services/export"
	"StockPulse/internal/services/search"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScreenerEchoHandler serves the snapshot, screening, detail and search endpoints.
type ScreenerEchoHandler struct {
	logger  *xlogger.Logger
	screen  *usecase.ScreenService
	detail  *usecase.DetailService
	index   *search.Index
	history *usecase.SnapshotHistory
	limiter *ratelimit.Limiter
	loc     *time.Location
}

// NewScreenerEchoHandler wires the handler. history and limiter may be nil.
func NewScreenerEchoHandler(logger *xlogger.Logger, screen *usecase.ScreenService, detail *usecase.DetailService,
	index *search.Index, history *usecase.SnapshotHistory, limiter *ratelimit.Limiter, loc *time.Location) *ScreenerEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	svcmetrics.Register()
	return &ScreenerEchoHandler{
		logger:  logger.With("api"),
		screen:  screen,
		detail:  detail,
		index:   index,
		history: history,
		limiter: limiter,
		loc:     loc,
	}
}

func (h *ScreenerEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(ratelimit.Middleware(h.limiter))
	}
	g.GET("/snapshot", h.Snapshot)
	g.GET("/snapshot/quotes", h.Quotes)
	g.GET("/screen", h.Screen)
	g.GET("/screen/export", h.Export)
	g.GET("/stocks/:code/detail", h.Detail)
	g.GET("/stocks/:code/backtest", h.Backtest)
	g.GET("/stocks/:code/snapshots", h.Snapshots)
	g.GET("/search", h.Search)
}

func (h *ScreenerEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	} else {
		h.logger.Debug(endpoint+" rejected", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// Health is liveness only; a cold or stale cache is still healthy.
func (h *ScreenerEchoHandler) Health(c echo.Context) error {
	st := h.screen.Status()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":     "ok",
		"rows":       st.Rows,
		"fetched_at": st.FetchedAt,
	})
}

func (h *ScreenerEchoHandler) Snapshot(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.screen.Status())
}

func (h *ScreenerEchoHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, _, err := h.screen.Quotes(c.Request().Context(), models.SplitCodes(req.Codes))
	if err != nil {
		return h.fail(c, "quotes", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// screenRequest starts from the configured defaults so that omitted query
// params keep them and explicit zeros open the bound.
func (h *ScreenerEchoHandler) screenRequest(c echo.Context) (*models.ScreenRequest, interface{}) {
	d := h.screen.Defaults()
	req := &models.ScreenRequest{
		MinFloatCap:    d.MinFloatCap,
		MaxFloatCap:    d.MaxFloatCap,
		MinTurnover:    d.MinTurnover,
		MinChange:      d.MinChange,
		MaxChange:      d.MaxChange,
		MinVolumeRatio: d.MinVolumeRatio,
		ExcludeST:      d.ExcludeST,
		Limit:          d.Limit,
	}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, verr
	}
	return req, nil
}

func (h *ScreenerEchoHandler) Screen(c echo.Context) error {
	start := time.Now()
	req, verr := h.screenRequest(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.screen.Screen(c.Request().Context(), req.Criteria())
	svcmetrics.Observe("screen", start, err)
	if err != nil {
		return h.fail(c, "screen", err)
	}
	svcmetrics.CandidatesReturned.WithLabelValues("screen").Observe(float64(len(res.Candidates)))
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreenerEchoHandler) Export(c echo.Context) error {
	start := time.Now()
	req, verr := h.screenRequest(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.screen.Screen(c.Request().Context(), req.Criteria())
	if err == nil {
		var body []byte
		body, err = export.Workbook(res, h.loc)
		if err == nil {
			svcmetrics.Observe("export", start, nil)
			return xhttp.AttachmentResponse(c, export.Filename(res, h.loc), export.ContentType, body)
		}
	}
	svcmetrics.Observe("export", start, err)
	return h.fail(c, "export", err)
}

func (h *ScreenerEchoHandler) Detail(c echo.Context) error {
	start := time.Now()
	req := &models.StockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	v, err := h.detail.Detail(c.Request().Context(), req.Code, req.Days)
	svcmetrics.Observe("detail", start, err)
	if err != nil {
		return h.fail(c, "detail", err)
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *ScreenerEchoHandler) Backtest(c echo.Context) error {
	start := time.Now()
	req := &models.StockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.detail.Backtest(c.Request().Context(), req.Code, req.Days)
	svcmetrics.Observe("backtest", start, err)
	if err != nil {
		return h.fail(c, "backtest", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreenerEchoHandler) Snapshots(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("snapshot archive is disabled"))
	}
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.history.Recent(c.Request().Context(), req.Code, req.Limit)
	if err != nil {
		return h.fail(c, "snapshots", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ScreenerEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	hits, err := h.index.Search(req.Q, req.Limit)
	if err != nil {
		return h.fail(c, "search", err)
	}
	return xhttp.ListResponse(c, hits, int64(len(hits)))
}
