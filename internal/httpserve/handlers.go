package httpserve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"maparr/internal/analysis"
	"maparr/internal/jobs"
	"maparr/internal/store"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         s.version,
		"dockerConnected": s.docker.Status(c.Request().Context()).Connected,
		"uptime":          time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) dockerStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.docker.Status(c.Request().Context()))
}

func (s *Server) listContainers(c echo.Context) error {
	snap, err := s.docker.Snapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	containers := snap.Containers
	if containers == nil {
		containers = []analysis.Container{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"containers": containers,
		"count":      len(containers),
	})
}

// analyzeResponse wraps a result with its persistence id.
type analyzeResponse struct {
	AnalysisID int64            `json:"analysisId,omitempty"`
	Result     *analysis.Result `json:"result"`
}

// analyze runs the full pipeline over the live snapshot plus stored
// manual paths. With ?async=true it returns a job id immediately and
// streams progress over /api/events.
func (s *Server) analyze(c echo.Context) error {
	if c.QueryParam("async") == "true" {
		id := s.jobs.Submit("analyze", func(ctx context.Context, report jobs.Progress) (any, error) {
			report(10, "capturing snapshot")
			resp, err := s.runAnalysis(ctx)
			if err != nil {
				return nil, err
			}
			report(90, "persisting result")
			return resp, nil
		})
		return c.JSON(http.StatusAccepted, map[string]string{"jobId": id})
	}

	resp, err := s.runAnalysis(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// analyzeSnapshot runs the engine over the live snapshot plus stored
// manual paths, without touching history.
func (s *Server) analyzeSnapshot(ctx context.Context) (*analysis.Result, error) {
	snap, err := s.docker.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	manual, err := s.store.ManualPathEntries(ctx)
	if err != nil {
		return nil, err
	}

	result := analysis.Analyze(analysis.WithManualPaths(snap, manual))
	log.Info("analysis complete", "summary", result.Describe())
	return result, nil
}

func (s *Server) runAnalysis(ctx context.Context) (*analyzeResponse, error) {
	result, err := s.analyzeSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.store.SaveAnalysis(ctx, result)
	if err != nil {
		// History is best-effort; the result itself is still good.
		log.Warn("failed to persist analysis", "error", err)
		id = 0
	}
	return &analyzeResponse{AnalysisID: id, Result: result}, nil
}

// recommendations returns just the guidance list. A daemon that cannot
// be reached is itself the first thing to fix.
func (s *Server) recommendations(c echo.Context) error {
	ctx := c.Request().Context()
	if status := s.docker.Status(ctx); !status.Connected {
		return c.JSON(http.StatusOK, map[string]any{
			"recommendations": []analysis.Recommendation{{
				Priority:    analysis.PriorityConnectivity,
				Title:       analysis.TitleConnectDocker,
				Description: "The Docker daemon is unreachable, so no container data is available: " + status.Error,
				Action:      "Verify the socket path in the configuration and that the daemon is running",
			}},
		})
	}

	result, err := s.analyzeSnapshot(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	recs := result.Recommendations
	if recs == nil {
		recs = []analysis.Recommendation{}
	}
	return c.JSON(http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) listJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"jobs": s.jobs.List()})
}

func (s *Server) getJob(c echo.Context) error {
	job, ok := s.jobs.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown job")
	}
	return c.JSON(http.StatusOK, job)
}

// streamEvents pushes job lifecycle events as SSE frames. A periodic
// comment keeps idle proxies from closing the stream.
func (s *Server) streamEvents(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := s.jobs.Subscribe()
	defer unsubscribe()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case ev, open := <-events:
			if !open {
				return nil
			}
			data, err := json.Marshal(ev.Job)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: job\ndata: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) listAnalyses(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := s.store.ListAnalyses(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []store.AnalysisRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"analyses": records})
}

func (s *Server) getAnalysis(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis id")
	}
	rec, found, err := s.store.GetAnalysis(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "unknown analysis")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) saveMapping(c echo.Context) error {
	var m store.Mapping
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mapping payload")
	}
	if m.HostPath == "" || m.ContainerPath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "hostPath and containerPath are required")
	}
	saved, err := s.store.SaveMapping(c.Request().Context(), m)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, saved)
}

func (s *Server) listMappings(c echo.Context) error {
	mappings, err := s.store.ListMappings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if mappings == nil {
		mappings = []store.Mapping{}
	}
	return c.JSON(http.StatusOK, map[string]any{"mappings": mappings})
}

func (s *Server) listManualPaths(c echo.Context) error {
	records, err := s.store.ListManualPaths(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []store.ManualPathRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"manualPaths": records})
}

func (s *Server) addManualPath(c echo.Context) error {
	var entry analysis.ManualPath
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid manual path payload")
	}
	if entry.HostPath == "" || entry.ContainerPath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "hostPath and containerPath are required")
	}
	rec, err := s.store.AddManualPath(c.Request().Context(), entry)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) replaceManualPaths(c echo.Context) error {
	var payload struct {
		Entries []analysis.ManualPath `json:"entries"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch payload")
	}
	for _, entry := range payload.Entries {
		if entry.HostPath == "" || entry.ContainerPath == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "every entry needs hostPath and containerPath")
		}
	}
	records, err := s.store.ReplaceManualPaths(c.Request().Context(), payload.Entries)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []store.ManualPathRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"manualPaths": records})
}

func (s *Server) deleteManualPath(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid manual path id")
	}
	deleted, err := s.store.DeleteManualPath(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "unknown manual path")
	}
	return c.NoContent(http.StatusNoContent)
}
