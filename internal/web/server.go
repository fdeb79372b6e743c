// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web serves the status page, the threshold form and the JSON/websocket feeds.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/history"
	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/monitor"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

// StateSource provides the state of the last cycle.
type StateSource interface {
	Latest() monitor.State
}

// Options configure a Server.
type Options struct {
	Addr           string
	RefreshSeconds int
	AccessLog      io.Writer // nil disables access logging
}

// Server is the reporting/config endpoint.
type Server struct {
	log        *slog.Logger
	opts       Options
	state      StateSource
	history    *history.Log
	thresholds *thresholds.Store
	hub        *Hub
	server     *http.Server
}

// NewServer wires the handlers. hub may be nil to disable /ws.
func NewServer(log *slog.Logger, opts Options, state StateSource, hist *history.Log, store *thresholds.Store, hub *Hub) *Server {
	return &Server{
		log:        log.With(slog.String("component", "web")),
		opts:       opts,
		state:      state,
		history:    hist,
		thresholds: store,
		hub:        hub,
	}
}

// Handler returns the routed, logged and panic-safe handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleIndex)
	r.Get("/setThresholds", s.handleSetThresholds)
	r.Get("/api/state", s.handleState)
	r.Get("/healthz", s.handleHealth)
	if s.hub != nil {
		r.Get("/ws", s.hub.ServeHTTP)
	}

	var h http.Handler = r
	if s.opts.AccessLog != nil {
		h = handlers.LoggingHandler(s.opts.AccessLog, h)
	}
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// Start listens in the background. Listen errors other than a clean
// shutdown are logged.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("web server listening", slog.String("address", s.opts.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("web server error", logger.Err(err))
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	set := s.thresholds.Current()
	data := pageData{
		Refresh:    s.opts.RefreshSeconds,
		State:      s.state.Latest(),
		Thresholds: set,
		Inverted:   set.Inverted(),
		History:    s.history.Snapshot(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("render page", logger.Err(err))
	}
}

func (s *Server) handleSetThresholds(w http.ResponseWriter, r *http.Request) {
	applied := s.thresholds.ApplyUpdate(thresholds.FromValues(r.URL.Query()))
	if len(applied) > 0 {
		set := s.thresholds.Current()
		s.log.Info("thresholds updated", slog.Any("fields", applied), slog.Any("thresholds", set))
		if inv := set.Inverted(); len(inv) > 0 {
			s.log.Warn("threshold band inverted, metric will always alert", slog.Any("metrics", inv))
		}
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

type stateResponse struct {
	State      monitor.State  `json:"state"`
	Thresholds thresholds.Set `json:"thresholds"`
	History    []env.LogEntry `json:"history"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		State:      s.state.Latest(),
		Thresholds: s.thresholds.Current(),
		History:    s.history.Chronological(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("json encode error", logger.Err(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.state.Latest()
	if !st.Healthy() {
		http.Error(w, "no healthy reading", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, "OK"); err != nil {
		s.log.Error("health write error", logger.Err(err))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
