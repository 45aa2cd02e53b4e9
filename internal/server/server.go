// Package server exposes the waterfall engine over a JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/config"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/projection"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/sensitivity"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/format"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/optimization"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/output"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const maxRequestIDLength = 128

type requestIDKey struct{}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the waterfall API. A nil
// cfg uses DefaultConfig.
func NewHandler(logger *zap.Logger, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	// Single deal from editor fields
	api.HandleFunc("/waterfall", h.handleWaterfall).Methods(http.MethodPost)

	// Deal file upload
	api.HandleFunc("/deals", h.handleDeals).Methods(http.MethodPost)

	// Price sensitivity table
	api.HandleFunc("/sweep", h.handleSweep).Methods(http.MethodPost)

	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound), "server.route")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "server.route")
	})
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = notAllowed
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = notAllowed

	var next http.Handler = router
	if len(cfg.AllowedOrigins) > 0 {
		next = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", constants.RequestIDHeader},
			ExposedHeaders: []string{constants.RequestIDHeader},
		}).Handler(router)
	}

	return h.withRequestID(next)
}

// withRequestID tags every response with a request ID, reusing the caller's
// when it supplies a reasonable one.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(constants.RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(constants.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *handler) loggerFor(r *http.Request) *zap.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return h.logger.With(zap.String("requestId", id))
	}
	return h.logger
}

type dealRequest struct {
	Inputs     waterfall.Inputs            `json:"inputs"`
	Guilds     waterfall.GuildState        `json:"guilds"`
	Selections waterfall.CapitalSelections `json:"selections"`
}

type sweepRequest struct {
	dealRequest
	Sweep sensitivity.SweepRange `json:"sweep"`
}

type ledgerLine struct {
	Name          string  `json:"name"`
	Detail        string  `json:"detail"`
	Amount        float64 `json:"amount"`
	Display       string  `json:"display"`
	Informational bool    `json:"informational,omitempty"`
}

type resultResponse struct {
	Revenue         float64      `json:"revenue"`
	Ledger          []ledgerLine `json:"ledger"`
	TotalDeductions float64      `json:"totalDeductions"`
	ProfitPool      float64      `json:"profitPool"`
	InvestorProfit  float64      `json:"investorProfit"`
	ProducerProfit  float64      `json:"producerProfit"`
	Shortfall       float64      `json:"shortfall"`
	// Multiple is null when no equity was invested.
	Multiple *float64 `json:"multiple"`
	// Breakeven is null when no finite price breaks even.
	Breakeven *float64 `json:"breakeven"`

	ProfitPoolDisplay string `json:"profitPoolDisplay"`
	MultipleDisplay   string `json:"multipleDisplay"`
	BreakevenDisplay  string `json:"breakevenDisplay"`

	Warnings []string `json:"warnings,omitempty"`
}

type goalResponse struct {
	Metric         string   `json:"metric"`
	Target         float64  `json:"target"`
	Revenue        *float64 `json:"revenue"`
	RevenueDisplay string   `json:"revenueDisplay"`
	Achieved       *float64 `json:"achieved"`
	Iterations     int      `json:"iterations"`
	Converged      bool     `json:"converged"`
	Notes          []string `json:"notes,omitempty"`
}

type dealResponse struct {
	Name             string              `json:"name"`
	Inputs           waterfall.Inputs    `json:"inputs"`
	Result           resultResponse      `json:"result"`
	TargetMultiple   *float64            `json:"targetMultiple,omitempty"`
	RevenueForTarget *float64            `json:"revenueForTarget,omitempty"`
	Sweep            []sensitivity.Point `json:"sweep,omitempty"`
	Goals            []goalResponse      `json:"goals,omitempty"`
	Notes            []string            `json:"notes,omitempty"`
}

type dealsResponse struct {
	Deals    []dealResponse `json:"deals"`
	CSV      string         `json:"csv"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
}

type sweepResponse struct {
	Points           []sensitivity.Point `json:"points"`
	Breakeven        *float64            `json:"breakeven"`
	BreakevenDisplay string              `json:"breakevenDisplay"`
}

func (h *handler) handleWaterfall(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWaterfall"

	var req dealRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	result := waterfall.Calculate(req.Inputs, req.Guilds, req.Selections)
	response := buildResult(req.Inputs.Revenue, result)
	response.Warnings = validation.ValidateDeal("request", req.Inputs, req.Guilds, req.Selections)

	h.loggerFor(r).Debug("waterfall computed",
		zap.String("op", op),
		zap.Float64("revenue", req.Inputs.Revenue),
		zap.Float64("profitPool", result.ProfitPool),
	)
	h.writeJSON(w, r, http.StatusOK, response, op)
}

func (h *handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSweep"

	var req sweepRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	points, err := sensitivity.Sweep(req.Inputs, req.Guilds, req.Selections, req.Sweep)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	breakeven := waterfall.CalculateBreakeven(req.Inputs, req.Guilds, req.Selections)
	h.writeJSON(w, r, http.StatusOK, sweepResponse{
		Points:           points,
		Breakeven:        finitePtr(breakeven),
		BreakevenDisplay: format.Currency(breakeven),
	}, op)
}

func (h *handler) handleDeals(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeals"

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing deal file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.loggerFor(r).Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read deal file: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	logger := h.loggerFor(r)
	results, err := projection.GetProjections(logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to compute deals: %v", err), op)
		return
	}

	csvText, err := output.CsvString(results)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	deals := make([]dealResponse, 0, len(results))
	for _, result := range results {
		deals = append(deals, buildDeal(result))
	}

	elapsed := time.Since(start)
	logger.Info("deals computed",
		zap.String("op", op),
		zap.Int("deals", len(deals)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, r, http.StatusOK, dealsResponse{
		Deals:    deals,
		CSV:      csvText,
		Warnings: warnings,
		Duration: elapsed.String(),
	}, op)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version": h.version,
	}, "server.handleVersion")
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func buildResult(revenue float64, result waterfall.Result) resultResponse {
	ledger := make([]ledgerLine, 0, len(result.Ledger))
	for _, entry := range result.Ledger {
		ledger = append(ledger, ledgerLine{
			Name:          entry.Name,
			Detail:        entry.Detail,
			Amount:        entry.Amount,
			Display:       format.Currency(entry.Amount),
			Informational: entry.Informational,
		})
	}

	response := resultResponse{
		Revenue:           revenue,
		Ledger:            ledger,
		TotalDeductions:   result.TotalDeductions,
		ProfitPool:        result.ProfitPool,
		InvestorProfit:    result.InvestorProfit,
		ProducerProfit:    result.ProducerProfit,
		Shortfall:         result.Shortfall(),
		Breakeven:         finitePtr(result.TotalHurdle),
		ProfitPoolDisplay: format.Currency(result.ProfitPool),
		MultipleDisplay:   constants.NotApplicable,
		BreakevenDisplay:  format.Currency(result.TotalHurdle),
	}
	if result.HasMultiple() {
		response.Multiple = finitePtr(result.Multiple)
		response.MultipleDisplay = format.Multiple(result.Multiple)
	}
	return response
}

func buildDeal(p projection.Projection) dealResponse {
	deal := dealResponse{
		Name:   p.Name,
		Inputs: p.Inputs,
		Result: buildResult(p.Inputs.Revenue, p.Result),
		Sweep:  p.Sweep,
		Notes:  p.Notes,
	}
	if p.HasTarget() {
		target := p.TargetMultiple
		deal.TargetMultiple = &target
		deal.RevenueForTarget = finitePtr(p.RevenueForTarget)
	}
	for _, goal := range p.Goals {
		deal.Goals = append(deal.Goals, buildGoal(goal))
	}
	return deal
}

func buildGoal(summary optimization.Summary) goalResponse {
	return goalResponse{
		Metric:         summary.Metric,
		Target:         summary.Target,
		Revenue:        finitePtr(summary.Revenue),
		RevenueDisplay: summary.RevenueDisplay,
		Achieved:       finitePtr(summary.Achieved),
		Iterations:     summary.Iterations,
		Converged:      summary.Converged,
		Notes:          summary.Notes,
	}
}

// finitePtr returns nil for values JSON cannot represent.
func finitePtr(value float64) *float64 {
	if !mathutil.IsFinite(value) {
		return nil
	}
	return &value
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.loggerFor(r).Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, r, status, map[string]string{"error": msg}, op)
}

// writeJSON encodes payload before committing the status, so a payload JSON
// cannot represent becomes a 422 instead of an empty 200.
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}, op string) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.loggerFor(r).Error("failed to encode JSON response",
			zap.String("op", op),
			zap.Error(err),
		)
		h.respondErrorWithOp(w, r, http.StatusUnprocessableEntity,
			"result contains values that cannot be represented in JSON; check inputs for overflow", op)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.loggerFor(r).Error("failed to write JSON response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
