package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edirooss/zrec-server/internal/http/dto"
	"github.com/edirooss/zrec-server/internal/service"
)

// CommandPreview is the response of POST /commands/preview.
type CommandPreview struct {
	Platform    string   `json:"platform"`
	Argv        []string `json:"argv"`
	Command     string   `json:"command"` // shell-quoted, copy-pasteable
	OutputPath  string   `json:"output_path"`
	AudioInputs int      `json:"audio_inputs"`
}

// PreviewCommand handles POST /commands/preview: synthesize the encoder
// command for a configuration without spawning anything.
//
// Status Codes:
//   - 200 OK → CommandPreview
//   - 400 Bad Request → Invalid JSON or schema
//   - 422 Unprocessable Entity → Validation failed
func PreviewCommand(svc *service.RecordingService) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		cmd, err := svc.Preview(cfg)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, service.ErrInvalidConfiguration) {
				status = http.StatusUnprocessableEntity
			}
			fail(c, status, err)
			return
		}

		c.JSON(http.StatusOK, CommandPreview{
			Platform:    cmd.Platform(),
			Argv:        cmd.Argv(svc.Binary()),
			Command:     cmd.String(svc.Binary()),
			OutputPath:  cmd.OutputPath(),
			AudioInputs: cmd.AudioInputs(),
		})
	}
}
