package middleware

import (
	"net/http"

	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"github.com/gin-gonic/gin"
	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"
)

// Authenticator validates an Authorization header value.
type Authenticator interface {
	Authenticate(header string) error
}

// AuthFailureRecorder counts rejected requests. Optional.
type AuthFailureRecorder interface {
	RecordAuthFailure(err error)
}

// Messages for rejected mutations.
const (
	MsgAuthRequired = "Authentication required"
	MsgMisconfig    = "Server configuration error"
)

// RequireToken rejects requests whose bearer token does not pass auth. A
// missing server secret is a 500, never a 401.
func RequireToken(auth Authenticator, recorder AuthFailureRecorder, logger *logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.NewNop()
	}

	return func(c *gin.Context) {
		err := auth.Authenticate(c.GetHeader("Authorization"))
		if err == nil {
			c.Next()
			return
		}

		if recorder != nil {
			recorder.RecordAuthFailure(err)
		}

		if errors.GetCode(err) == errors.CodeInvalidConfig {
			logger.Error("API key is not configured", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":  http.StatusInternalServerError,
				"message": MsgMisconfig,
			})
			return
		}

		logger.Debug("Rejected unauthenticated request",
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  http.StatusUnauthorized,
			"message": MsgAuthRequired,
		})
	}
}
