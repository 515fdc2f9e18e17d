package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edirooss/zrec-server/internal/service"
)

// FFmpegInfo is the response of GET /system/ffmpeg.
type FFmpegInfo struct {
	Path      string              `json:"path"`
	Available bool                `json:"available"`
	Version   string              `json:"version,omitempty"`
	Error     string              `json:"error,omitempty"`
	Tools     []service.ToolCheck `json:"tools"`
}

// GetFFmpeg handles GET /system/ffmpeg. It always answers 200; an unusable
// encoder is reported in the body.
func GetFFmpeg(ffmpegPath string, tools []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := FFmpegInfo{Path: ffmpegPath, Tools: service.LookTools(tools)}

		v, err := service.CheckFFmpeg(c.Request.Context(), ffmpegPath)
		if err != nil {
			c.Error(err)
			info.Error = err.Error()
		} else {
			info.Available, info.Version = true, v
		}
		c.JSON(http.StatusOK, info)
	}
}
