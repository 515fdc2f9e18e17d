package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/http/dto"
	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
	"github.com/edirooss/zrec-server/internal/service"
)

const (
	defaultLogLines     = 100
	defaultHistoryLimit = 20
	eventStreamBuffer   = 64
)

// RecordingsHandler provides HTTP handlers for the single recording session.
//
// Supported operations:
//   - POST /recordings            → Start a session
//   - POST /recordings/stop       → Request a graceful stop
//   - GET  /recordings/current    → Current (or last) session status
//   - GET  /recordings/events     → SSE stream of session events
//   - GET  /recordings/{id}/logs  → Encoder output tail
//   - GET  /recordings/history    → Finished sessions, newest first
type RecordingsHandler struct {
	log *zap.Logger
	svc *service.RecordingService
}

// NewRecordingsHandler constructs a RecordingsHandler instance.
func NewRecordingsHandler(log *zap.Logger, svc *service.RecordingService) *RecordingsHandler {
	return &RecordingsHandler{log: log.Named("recordings"), svc: svc}
}

// Start handles POST /recordings.
//
// Status Codes:
//   - 201 Created → JSON session status
//   - 400 Bad Request → Invalid JSON or schema
//   - 409 Conflict → A session is already active
//   - 422 Unprocessable Entity → Validation failed
//   - 500 Internal Server Error → Encoder could not be spawned
func (h *RecordingsHandler) Start(c *gin.Context) {
	var req dto.RecordingStart
	if err := bind(c.Request, &req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	cfg, err := req.ToConfiguration()
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	st, err := h.svc.Start(cfg)
	switch {
	case errors.Is(err, service.ErrInvalidConfiguration):
		fail(c, http.StatusUnprocessableEntity, err)
		return
	case errors.Is(err, service.ErrSessionActive):
		fail(c, http.StatusConflict, err)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
		return
	}

	if st.State == service.StateFailed {
		c.Error(errors.New(st.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"message": st.Error, "session": st})
		return
	}

	c.Header("Location", fmt.Sprintf("/api/recordings/%s/logs", st.ID))
	c.JSON(http.StatusCreated, st)
}

// Stop handles POST /recordings/stop.
//
// Status Codes:
//   - 202 Accepted → Stop requested; completion is reported on the event stream
//   - 409 Conflict → Nothing is recording
func (h *RecordingsHandler) Stop(c *gin.Context) {
	if err := h.svc.Stop(); err != nil {
		fail(c, http.StatusConflict, err)
		return
	}
	st, _ := h.svc.Current()
	c.JSON(http.StatusAccepted, st)
}

// Current handles GET /recordings/current.
//
// Status Codes:
//   - 200 OK → JSON session status (state "idle" when no session ever ran)
func (h *RecordingsHandler) Current(c *gin.Context) {
	st, ok := h.svc.Current()
	if !ok {
		c.JSON(http.StatusOK, service.SessionStatus{State: service.StateIdle})
		return
	}
	c.JSON(http.StatusOK, st)
}

// Events handles GET /recordings/events.
//
// Streams Server-Sent Events until the client disconnects or the server shuts
// down. The first event ("status") carries the current session status; the
// rest are named after the event type (started, duration_tick, stopped,
// error). Slow clients miss ticks rather than stall the recorder.
func (h *RecordingsHandler) Events(c *gin.Context) {
	events, cancel := h.svc.Subscribe(eventStreamBuffer)
	defer cancel()

	// SSE outlives the server's write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if st, ok := h.svc.Current(); ok {
		c.SSEvent("status", st)
	} else {
		c.SSEvent("status", service.SessionStatus{State: service.StateIdle})
	}
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(string(ev.Type), ev)
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// Logs handles GET /recordings/{id}/logs?lines=N.
//
// Status Codes:
//   - 200 OK → JSON array of encoder output lines, oldest first
//   - 400 Bad Request → Invalid ID or lines
//   - 404 Not Found → No retained output for this session
func (h *RecordingsHandler) Logs(c *gin.Context) {
	n, ok := queryInt(c, "lines", defaultLogLines, processmgr.LogBufferSize)
	if !ok {
		fail(c, http.StatusBadRequest, errors.New("lines must be a positive integer"))
		return
	}

	lines, found := h.svc.Logs(c.Param("id"), n)
	if !found {
		fail(c, http.StatusNotFound, errors.New("session logs not found"))
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(lines)))
	c.JSON(http.StatusOK, lines)
}

// History handles GET /recordings/history?limit=N.
//
// Status Codes:
//   - 200 OK → JSON array of records, newest first
//   - 400 Bad Request → Invalid limit
//   - 500 Internal Server Error → History store unavailable
func (h *RecordingsHandler) History(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultHistoryLimit, service.DefaultHistoryLimit)
	if !ok {
		fail(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
		return
	}

	recs, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(recs)))
	c.JSON(http.StatusOK, recs)
}
