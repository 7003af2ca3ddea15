// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisense/irrigo/internal/domain/entities"
	"github.com/agrisense/irrigo/internal/domain/ports"
	"github.com/agrisense/irrigo/internal/domain/usecases"
)

// Server is the HTTP server for the irrigation decision API.
type Server struct {
	planner   *usecases.Planner
	engine    *usecases.Engine
	retriever *usecases.Retriever
	history   ports.HistoryStore
	weather   ports.WeatherService
	llmModel  string // empty when running rule-engine-only
	logger    *zap.Logger
	addr      string

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewServer creates a new HTTP server.
func NewServer(
	planner *usecases.Planner,
	engine *usecases.Engine,
	retriever *usecases.Retriever,
	history ports.HistoryStore,
	weather ports.WeatherService,
	llmModel string,
	logger *zap.Logger,
	addr string,
	readTimeout, writeTimeout time.Duration,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}
	return &Server{
		planner:      planner,
		engine:       engine,
		retriever:    retriever,
		history:      history,
		weather:      weather,
		llmModel:     llmModel,
		logger:       logger,
		addr:         addr,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Start runs the HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/irrigation-plan", s.handleIrrigationPlan)
	mux.HandleFunc("/api/weekly-report", s.handleWeeklyReport)
	mux.HandleFunc("/api/weekly-schedule", s.handleWeeklySchedule)
	mux.HandleFunc("/api/weather-forecast", s.handleWeatherForecast)
	mux.HandleFunc("/api/rain-alert", s.handleRainAlert)
	mux.HandleFunc("/api/crop-info", s.handleCropInfo)
	mux.HandleFunc("/api/system-info", s.handleSystemInfo)
	mux.HandleFunc("/api/export/weekly-report", s.handleExportWeeklyReport)
	mux.HandleFunc("/api/export/history", s.handleExportHistory)
	mux.HandleFunc("/api/health", s.handleHealth)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(s.loggingMiddleware(mux)),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.logger.Info("irrigation server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// planRequest is the JSON body for plan and schedule endpoints.
type planRequest struct {
	CropType        string   `json:"crop_type"`
	CropStage       string   `json:"crop_stage"`
	FieldSizeHa     float64  `json:"field_size_ha"`
	RainfallMM      *float64 `json:"rainfall_mm,omitempty"`
	SoilMoisturePct *float64 `json:"soil_moisture_pct,omitempty"`
	Location        string   `json:"location,omitempty"`
}

func (r planRequest) toUsecase() usecases.PlanRequest {
	return usecases.PlanRequest{
		CropType:        entities.CropType(r.CropType),
		CropStage:       entities.CropStage(r.CropStage),
		FieldSizeHa:     r.FieldSizeHa,
		RainfallMM:      r.RainfallMM,
		SoilMoisturePct: r.SoilMoisturePct,
		Location:        r.Location,
	}
}

func (s *Server) handleIrrigationPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FieldSizeHa <= 0 {
		writeError(w, http.StatusBadRequest, "field_size_ha must be positive")
		return
	}

	resp, err := s.planner.Plan(r.Context(), req.toUsecase())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecases.ErrUnknownCrop) || errors.Is(err, usecases.ErrUnknownStage) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.planner.WeeklyReport(r.Context()))
}

func (s *Server) handleWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	schedule, err := s.planner.WeeklySchedule(r.Context(), req.toUsecase())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecases.ErrUnknownCrop) || errors.Is(err, usecases.ErrUnknownStage) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleWeatherForecast(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	days := queryInt(r, "days", 7)

	forecast, err := s.weather.Forecast(r.Context(), location, days)
	if err != nil {
		// The adapter already degrades to synthetic data; this only
		// fires on request construction problems.
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleRainAlert(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	daysAhead := queryInt(r, "days_ahead", 3)
	writeJSON(w, http.StatusOK, s.planner.RainAlerts(r.Context(), location, daysAhead))
}

func (s *Server) handleCropInfo(w http.ResponseWriter, r *http.Request) {
	crop := entities.CropType(r.URL.Query().Get("crop_type"))
	info, err := s.engine.CropInfo(crop)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	llmModel := s.llmModel
	llmConnected := llmModel != ""
	if llmModel == "" {
		llmModel = "none"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rag_components": map[string]any{
			"documents_loaded": s.retriever.DocumentCount(),
			"document_sources": s.retriever.Sources(),
			"memory_entries":   s.history.Len(),
		},
		"llm": map[string]any{
			"model":     llmModel,
			"connected": llmConnected,
			"provider":  "Google Gemini API",
		},
		"services": map[string]any{
			"weather":    "forecast with synthetic fallback",
			"irrigation": "rule-based",
		},
	})
}

func (s *Server) handleExportWeeklyReport(w http.ResponseWriter, r *http.Request) {
	summary := s.history.WeeklySummary()
	savings := s.history.WaterSavings(usecases.BaselineDailyWaterL)

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=weekly_report_%s.csv", time.Now().Format("20060102")))

		cw := csv.NewWriter(w)
		cw.Write([]string{"Weekly Irrigation Report"})
		cw.Write(nil)
		cw.Write([]string{"Period", summary.Period})
		cw.Write([]string{"Total Irrigations", strconv.Itoa(summary.TotalIrrigations)})
		cw.Write([]string{"Total Water Used (L)", formatFloat(summary.TotalWaterUsedL)})
		cw.Write([]string{"Skipped Due to Rain", strconv.Itoa(summary.SkippedCount)})
		cw.Write([]string{"Average Soil Moisture (%)", formatFloat(summary.AverageSoilMoisturePct)})
		cw.Write(nil)
		cw.Write([]string{"Water Savings"})
		cw.Write([]string{"Smart System Usage (L)", formatFloat(savings.SmartUsageL)})
		cw.Write([]string{"Traditional Schedule (L)", formatFloat(savings.TraditionalUsageL)})
		cw.Write([]string{"Water Saved (L)", formatFloat(savings.SavedL)})
		cw.Write([]string{"Savings Percentage (%)", formatFloat(savings.SavedPct)})
		cw.Write(nil)
		cw.Write([]string{"Daily Decisions"})
		cw.Write([]string{"Date", "Decision", "Water (L)"})
		for _, d := range summary.PerDay {
			cw.Write([]string{d.Date, string(d.Decision), formatFloat(d.WaterL)})
		}
		cw.Flush()
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":     summary,
		"savings":     savings,
		"exported_at": time.Now(),
	})
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	history := s.history.Recent(30)

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=irrigation_history_%s.csv", time.Now().Format("20060102")))

		cw := csv.NewWriter(w)
		cw.Write([]string{"Timestamp", "Crop Type", "Crop Stage", "Field Size (ha)",
			"Soil Moisture (%)", "Rainfall (mm)", "Water Applied (L)", "Decision", "Reasoning"})
		for _, e := range history {
			cw.Write([]string{
				e.Timestamp,
				string(e.CropType),
				string(e.CropStage),
				formatFloat(e.FieldSizeHa),
				formatFloat(e.SoilMoisturePct),
				formatFloat(e.RainfallMM),
				formatFloat(e.WaterAppliedL),
				string(e.Decision),
				truncateString(e.ReasoningExcerpt, 100),
			})
		}
		cw.Flush()
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history":       history,
		"total_entries": len(history),
		"exported_at":   time.Now(),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
