package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/settings"
)

// History limits for GET /history.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// switchRequest is the body of PUT /board/power and PUT /board/mute.
type switchRequest struct {
	On *bool `json:"on"`
}

// valueRequest is the body of the single-value DSP endpoints.
type valueRequest struct {
	Value *float64 `json:"value"`
}

// valueResponse reports a single DSP value and the unit it is in.
type valueResponse struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type balanceRequest struct {
	Left  *float64 `json:"left"`
	Right *float64 `json:"right"`
}

type balanceResponse struct {
	board.Balance
	Unit string `json:"unit"`
}

type inputRequest struct {
	Input    *int     `json:"input"`
	Loudness *bool    `json:"loudness"`
	Gain     *float64 `json:"gain"`
}

type inputResponse struct {
	board.InputSettings
	Unit string `json:"unit"`
}

type tuneRequest struct {
	Frequency *float64 `json:"frequency"`
}

type stepRequest struct {
	StepKHz *int `json:"step_khz"`
}

// unitFromRequest reads ?unit=level|db. A bad value has already been
// answered with 400 when ok is false.
func unitFromRequest(w http.ResponseWriter, r *http.Request) (board.Unit, bool) {
	u, err := board.ParseUnit(r.URL.Query().Get("unit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return board.Level, false
	}
	return u, true
}

// decodeBody decodes the JSON body into v. A bad body has already been
// answered with 400 when it returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// ─── Board ───

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.radio.Snapshot(u))
}

func (s *Server) handleSetPower(w http.ResponseWriter, r *http.Request) {
	s.handleSwitch(w, r, s.radio.SetPower)
}

func (s *Server) handleSetMute(w http.ResponseWriter, r *http.Request) {
	s.handleSwitch(w, r, s.radio.SetMute)
}

// handleSwitch applies {"on": bool} with set and responds with the board
// snapshot.
func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request, set func(context.Context, string, bool) error) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	var req switchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.On == nil {
		writeBadRequest(w, `"on" is required`)
		return
	}
	if err := set(r.Context(), settings.SourceAPI, *req.On); err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.radio.Snapshot(u))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.radio.Reset(r.Context(), settings.SourceAPI); err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.radio.Snapshot(u))
}

// ─── DSP ───

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	s.handleGetValue(w, r, s.radio.Volume)
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	s.handleSetValue(w, r, s.radio.SetVolume)
}

func (s *Server) handleGetBass(w http.ResponseWriter, r *http.Request) {
	s.handleGetValue(w, r, s.radio.Bass)
}

func (s *Server) handleSetBass(w http.ResponseWriter, r *http.Request) {
	s.handleSetValue(w, r, s.radio.SetBass)
}

func (s *Server) handleGetTreble(w http.ResponseWriter, r *http.Request) {
	s.handleGetValue(w, r, s.radio.Treble)
}

func (s *Server) handleSetTreble(w http.ResponseWriter, r *http.Request) {
	s.handleSetValue(w, r, s.radio.SetTreble)
}

func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request, get func(board.Unit) float64) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Value: get(u), Unit: u.String()})
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request, set func(context.Context, string, float64, board.Unit) (float64, error)) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeBadRequest(w, `"value" is required`)
		return
	}
	v, err := set(r.Context(), settings.SourceAPI, *req.Value, u)
	if err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Value: v, Unit: u.String()})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: s.radio.Balance(u), Unit: u.String()})
}

// handleSetBalance changes either channel or both; omitted channels keep
// their value.
func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	var req balanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := s.radio.SetBalance(r.Context(), settings.SourceAPI, board.BalanceUpdate{Left: req.Left, Right: req.Right}, u)
	if err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: b, Unit: u.String()})
}

func (s *Server) handleGetInput(w http.ResponseWriter, r *http.Request) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inputResponse{InputSettings: s.radio.Input(u), Unit: u.String()})
}

func (s *Server) handleSetInput(w http.ResponseWriter, r *http.Request) {
	u, ok := unitFromRequest(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := s.radio.SetInput(r.Context(), settings.SourceAPI, board.InputUpdate{
		Input:    req.Input,
		Loudness: req.Loudness,
		Gain:     req.Gain,
	}, u)
	if err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inputResponse{InputSettings: in, Unit: u.String()})
}

// ─── Tuner ───

func (s *Server) handleGetTuning(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.radio.Tuning())
}

func (s *Server) handleTune(w http.ResponseWriter, r *http.Request) {
	var req tuneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Frequency == nil {
		writeBadRequest(w, `"frequency" is required`)
		return
	}
	t, err := s.radio.Tune(r.Context(), settings.SourceAPI, *req.Frequency)
	if err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleSetStep exists so clients get a definite answer: the step is fixed
// and every request fails with 422.
func (s *Server) handleSetStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StepKHz == nil {
		writeBadRequest(w, `"step_khz" is required`)
		return
	}
	t, err := s.radio.SetStep(r.Context(), settings.SourceAPI, *req.StepKHz)
	if err != nil {
		writeRadioError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ─── History ───

// handleHistory returns the most recent state changes, newest first.
// ?limit defaults to 50 and is capped at 200.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.radio.History(r.Context(), limit)
	if err != nil {
		writeRadioError(w, err)
		return
	}
	if entries == nil {
		entries = []settings.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"board_id": s.radio.BoardID(),
		"entries":  entries,
		"count":    len(entries),
	})
}
