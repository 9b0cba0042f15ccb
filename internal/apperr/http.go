package apperr

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hecopilot/copilot-backend/internal/logging"
)

// Respond writes the structured {"error": ...} body for err.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		logging.New(c.Request.Context()).LogErrorf(c.FullPath(), "kind=%s error=%v", KindOf(err), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// Recovery converts panics into an unexpected-error JSON response instead of
// gin's default empty 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		Respond(c, &Error{Kind: KindUnexpected, Msg: fmt.Sprint(recovered)})
	})
}
