package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/b3cotahist/internal/domain/dto"
	"github.com/guttosm/b3cotahist/internal/middleware"
	"github.com/guttosm/b3cotahist/internal/service"
)

const (
	defaultQuotesLimit = 30
	maxQuotesLimit     = 5000
)

// Handler serves the read-only dashboard endpoints.
//
// Responsibilities:
//   - Validate path and query parameters
//   - Call the dashboard service with the request context
//   - Translate results into response DTOs
type Handler struct {
	svc service.DashboardService
}

// NewHandler constructs a Handler.
//
// Parameters:
//   - svc (service.DashboardService): analytics over stored quotes.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.DashboardService) *Handler {
	return &Handler{svc: svc}
}

// ListTickers handles GET /api/v1/tickers.
//
// ListTickers godoc
// @Summary      List tickers
// @Description  Returns every stored ticker with its date range and session count
// @Tags         quotes
// @Produce      json
// @Success      200  {array}   dto.TickerResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/tickers [get]
func (h *Handler) ListTickers(c *gin.Context) {
	tickers, err := h.svc.Tickers(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to list tickers", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTickerResponses(tickers))
}

// GetQuotes handles GET /api/v1/quotes/{ticker}.
//
// Query Parameters:
//   - limit (int, optional): most recent sessions to return, 1-5000 (default 30).
//
// GetQuotes godoc
// @Summary      Daily quotes of a ticker
// @Description  Returns the most recent sessions of a ticker, oldest first, prices in BRL
// @Tags         quotes
// @Produce      json
// @Param        ticker  path      string  true   "Stock ticker" example(PETR4)
// @Param        limit   query     int     false  "Number of sessions (1-5000)" example(30)
// @Success      200     {object}  dto.QuotesResponse  "Success"
// @Failure      400     {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse   "Not Found"
// @Failure      500     {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/quotes/{ticker} [get]
func (h *Handler) GetQuotes(c *gin.Context) {
	ticker, ok := tickerParam(c)
	if !ok {
		return
	}

	limit := defaultQuotesLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxQuotesLimit {
			middleware.AbortWithError(c, http.StatusBadRequest, "limit must be an integer between 1 and 5000", err)
			return
		}
		limit = n
	}

	points, err := h.svc.Series(c.Request.Context(), ticker, limit)
	if err != nil {
		h.fail(c, "failed to fetch quotes", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuotesResponse(ticker, points))
}

// GetMetrics handles GET /api/v1/metrics/{ticker}.
//
// GetMetrics godoc
// @Summary      Ticker metrics
// @Description  Cumulative profitability, 21-session annualized volatility and last-session figures
// @Tags         analytics
// @Produce      json
// @Param        ticker  path      string  true  "Stock ticker" example(PETR4)
// @Success      200     {object}  dto.MetricsResponse  "Success"
// @Failure      404     {object}  dto.ErrorResponse    "Not Found"
// @Failure      500     {object}  dto.ErrorResponse    "Internal Error"
// @Router       /api/v1/metrics/{ticker} [get]
func (h *Handler) GetMetrics(c *gin.Context) {
	ticker, ok := tickerParam(c)
	if !ok {
		return
	}
	m, err := h.svc.Metrics(c.Request.Context(), ticker)
	if err != nil {
		h.fail(c, "failed to compute metrics", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMetricsResponse(*m))
}

// GetStatistics handles GET /api/v1/statistics/{ticker}.
//
// GetStatistics godoc
// @Summary      Ticker statistics
// @Description  Volatility and profitability over 1, 12, 24 and 36 months and the current year
// @Tags         analytics
// @Produce      json
// @Param        ticker  path      string  true  "Stock ticker" example(PETR4)
// @Success      200     {object}  dto.StatisticsResponse  "Success"
// @Failure      404     {object}  dto.ErrorResponse       "Not Found"
// @Failure      500     {object}  dto.ErrorResponse       "Internal Error"
// @Router       /api/v1/statistics/{ticker} [get]
func (h *Handler) GetStatistics(c *gin.Context) {
	ticker, ok := tickerParam(c)
	if !ok {
		return
	}
	stats, err := h.svc.Statistics(c.Request.Context(), ticker)
	if err != nil {
		h.fail(c, "failed to compute statistics", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStatisticsResponse(ticker, stats))
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, service.ErrTickerNotFound) {
		middleware.AbortWithError(c, http.StatusNotFound, "no data found", err)
		return
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, msg, err)
}

// tickerParam reads the upper-cased :ticker path parameter, answering 400
// when it is blank or longer than the CODNEG column.
func tickerParam(c *gin.Context) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" || len(ticker) > 12 {
		middleware.AbortWithError(c, http.StatusBadRequest, "ticker is required (up to 12 characters)", nil)
		return "", false
	}
	return ticker, true
}
