package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/service"
)

// DevicesHandler exposes the capturable-source inventory.
// All endpoints accept ?refresh=1 to bypass the cache.
type DevicesHandler struct {
	log *zap.Logger
	svc *service.DeviceCatalog
}

func NewDevicesHandler(log *zap.Logger, svc *service.DeviceCatalog) *DevicesHandler {
	return &DevicesHandler{log: log.Named("devices"), svc: svc}
}

func (h *DevicesHandler) refresh(c *gin.Context) {
	if c.Query("refresh") == "1" {
		h.svc.Invalidate()
	}
}

// GetInventory handles GET /devices.
func (h *DevicesHandler) GetInventory(c *gin.Context) {
	h.refresh(c)
	inv, err := h.svc.Inventory(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// GetVideoList handles GET /devices/video.
func (h *DevicesHandler) GetVideoList(c *gin.Context) {
	h.refresh(c)
	list, err := h.svc.Video(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(list)))
	c.JSON(http.StatusOK, list)
}

// GetAudioList handles GET /devices/audio?role=microphone|loopback.
func (h *DevicesHandler) GetAudioList(c *gin.Context) {
	role := capture.AudioRoleMicrophone
	if raw := c.Query("role"); raw != "" {
		r, err := capture.ParseAudioRole(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
		role = r
	}

	h.refresh(c)
	list, err := h.svc.Audio(c.Request.Context(), role)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(list)))
	c.JSON(http.StatusOK, list)
}

// GetWindowList handles GET /devices/windows.
func (h *DevicesHandler) GetWindowList(c *gin.Context) {
	h.refresh(c)
	list, err := h.svc.Windows(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(list)))
	c.JSON(http.StatusOK, list)
}
