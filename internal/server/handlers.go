package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-series/internal/job"
	"github.com/rxtech-lab/argo-series/internal/version"
	"github.com/rxtech-lab/argo-series/pkg/config"
	"github.com/rxtech-lab/argo-series/pkg/errors"
	"github.com/rxtech-lab/argo-series/pkg/loader"
	"github.com/rxtech-lab/argo-series/pkg/timeseries"
	"github.com/rxtech-lab/argo-series/pkg/timeseries/interpolation"
	"go.uber.org/zap"
)

// ResampleRequest carries a source series and the grid to resample it onto.
// Either Target or Step must be set; Step lays a grid over the source bounds.
type ResampleRequest struct {
	ID         string    `json:"id,omitempty"`
	Timestamps []int64   `json:"timestamps"`
	Values     []float64 `json:"values"`
	Target     []int64   `json:"target,omitempty"`
	Step       int64     `json:"step,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Seed       *uint64   `json:"seed,omitempty"`
}

type ResampleResponse struct {
	ID         string    `json:"id"`
	Timestamps []int64   `json:"timestamps"`
	Values     []float64 `json:"values"`
}

type ErrorResponse struct {
	ID      string `json:"id,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	providers := make([]loader.ProviderInfo, 0)

	for _, name := range loader.GetSupportedProviders() {
		info, err := loader.GetProviderInfo(name)
		if err != nil {
			s.writeError(w, "", err)

			return
		}

		providers = append(providers, info)
	}

	writeJSON(w, http.StatusOK, providers)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		s.writeError(w, "", err)

		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schema))
}

// handleResample handles POST /v1/resample
func (s *Server) handleResample(w http.ResponseWriter, r *http.Request) {
	var req ResampleRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	resp, err := s.resample(req)
	if err != nil {
		s.writeError(w, resp.ID, err)

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSymbolResample handles GET /v1/symbols/{symbol}/resample and answers with CSV.
func (s *Server) handleSymbolResample(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{
			Code:    int(errors.ErrCodeInvalidConfiguration),
			Message: "no loader configured",
		})

		return
	}

	cfg, err := symbolJobConfig(mux.Vars(r)["symbol"], r)
	if err != nil {
		s.writeError(w, "", err)

		return
	}

	runner := job.NewRunner(s.loader, s.resampler, s.logger)

	// render into memory so a failure can still be answered with a JSON error
	var body bytes.Buffer
	if _, err := runner.Run(r.Context(), cfg, &body); err != nil {
		s.writeError(w, "", err)

		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

// handleWebSocket answers each ResampleRequest message with a ResampleResponse or an
// ErrorResponse until the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.maxBodyBytes)

	for {
		var req ResampleRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("WebSocket closed", zap.Error(err))
			}

			return
		}

		resp, err := s.resample(req)

		var reply any = resp
		if err != nil {
			reply = errorResponse(resp.ID, err)
		}

		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("WebSocket write failed", zap.Error(err))

			return
		}
	}
}

func (s *Server) resample(req ResampleRequest) (ResampleResponse, error) {
	resp := ResampleResponse{ID: req.ID}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}

	strategy := interpolation.Linear

	if req.Strategy != "" {
		parsed, err := interpolation.ParseStrategy(req.Strategy)
		if err != nil {
			return resp, err
		}

		strategy = parsed
	}

	source, err := timeseries.New(req.Timestamps, req.Values)
	if err != nil {
		return resp, err
	}

	target := req.Target
	if len(target) == 0 {
		if req.Step <= 0 || source.Len() == 0 {
			return resp, errors.New(errors.ErrCodeInvalidParameter, "request needs a target or a positive step")
		}

		target, err = timeseries.Grid(source.TimestampAt(0), source.TimestampAt(source.Len()-1), req.Step)
		if err != nil {
			return resp, err
		}
	}

	seed := optional.None[uint64]()
	if req.Seed != nil {
		seed = optional.Some(*req.Seed)
	}

	result, err := s.resampler.Resample(source, target, strategy, seed)
	if err != nil {
		return resp, err
	}

	s.logger.Debug("Served resample request",
		zap.String("id", resp.ID),
		zap.Int("source_len", source.Len()),
		zap.Int("target_len", result.Len()),
	)

	resp.Timestamps = result.Timestamps()
	resp.Values = result.Values()

	return resp, nil
}

func symbolJobConfig(symbol string, r *http.Request) (*config.JobConfig, error) {
	query := r.URL.Query()
	cfg := config.Default()
	cfg.Source.Symbol = symbol

	step, err := time.ParseDuration(query.Get("step"))
	if err != nil || step <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid step %q", query.Get("step"))
	}

	cfg.Target.Step = step

	if name := query.Get("strategy"); name != "" {
		strategy, err := interpolation.ParseStrategy(name)
		if err != nil {
			return nil, err
		}

		cfg.Strategy = strategy
	}

	if raw := query.Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid seed %q", raw)
		}

		cfg.Seed = optional.Some(seed)
	}

	for _, bound := range []struct {
		name string
		dest *optional.Option[time.Time]
	}{
		{name: "start", dest: &cfg.Source.Start},
		{name: "end", dest: &cfg.Source.End},
	} {
		raw := query.Get(bound.name)
		if raw == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid %s %q", bound.name, raw)
		}

		*bound.dest = optional.Some(t)
	}

	if raw := query.Get("precision"); raw != "" {
		precision, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || precision < 0 || precision > 12 {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid precision %q", raw)
		}

		cfg.Output.Precision = int32(precision)
	}

	return &cfg, nil
}

func (s *Server) writeError(w http.ResponseWriter, id string, err error) {
	resp := errorResponse(id, err)

	status := statusFor(errors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}

	writeJSON(w, status, resp)
}

func errorResponse(id string, err error) ErrorResponse {
	return ErrorResponse{
		ID:      id,
		Code:    int(errors.GetCode(err)),
		Message: err.Error(),
	}
}

func statusFor(code errors.ErrorCode) int {
	switch {
	case code == errors.ErrCodeDataUnavailable:
		return http.StatusNotFound
	case code == errors.ErrCodeInvalidProvider:
		return http.StatusBadRequest
	case code >= 100 && code < 300:
		return http.StatusBadRequest
	case code == errors.ErrCodeDataFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
