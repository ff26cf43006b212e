// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/lintdispatch/services/dispatch"
	"github.com/AleutianAI/lintdispatch/services/telemetry"
)

// watchStatus is the state published by the watch status server.
//
// # Thread Safety
//
// Safe for concurrent use.
type watchStatus struct {
	mu      sync.RWMutex
	started time.Time
	runs    int
	last    *dispatch.Summary
	lastAt  time.Time
}

func newWatchStatus() *watchStatus {
	return &watchStatus{started: time.Now()}
}

// record stores the summary of a finished run. A nil summary still counts.
func (s *watchStatus) record(summary *dispatch.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.last = summary
	s.lastAt = time.Now()
}

// statusResponse is the JSON body of GET /status.
type statusResponse struct {
	Since     time.Time         `json:"since"`
	Runs      int               `json:"runs"`
	LastRunAt *time.Time        `json:"last_run_at,omitempty"`
	LastRun   *dispatch.Summary `json:"last_run,omitempty"`
}

func (s *watchStatus) snapshot() statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := statusResponse{Since: s.started, Runs: s.runs, LastRun: s.last}
	if !s.lastAt.IsZero() {
		at := s.lastAt
		resp.LastRunAt = &at
	}
	return resp
}

// newStatusRouter serves /healthz, /status and, when the Prometheus
// exporter is active, /metrics.
func newStatusRouter(status *watchStatus) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("lintdispatch"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status.snapshot())
	})
	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}
	return router
}

// runStatusServer serves handler on ln until ctx is done, then shuts the
// server down.
func runStatusServer(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("status server listening", "address", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}
