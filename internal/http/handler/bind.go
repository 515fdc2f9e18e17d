package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edirooss/zrec-server/pkg/jsonx"
)

func bind[T any](req *http.Request, obj *T) error {
	return jsonx.ParseStrictJSONBody(req, obj)
}

// queryInt parses an optional positive int query param clamped to max.
func queryInt(c *gin.Context, key string, def, max int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > max {
		n = max
	}
	return n, true
}

func fail(c *gin.Context, status int, err error) {
	c.Error(err)
	c.JSON(status, gin.H{"message": err.Error()})
}
