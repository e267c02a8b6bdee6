package handlers

import (
	"net/http"

	"github.com/g-but/fitfoot/internal/handlers/render"
	"github.com/g-but/fitfoot/internal/logger"
	"github.com/g-but/fitfoot/internal/service/remote"
)

// upstreamError renders failure of a call to the commerce API.
// Rejections keep commerce status and message (fallback when it sent none), anything else is a bad gateway.
func upstreamError(w http.ResponseWriter, err error, fallback string, l logger.Logger) {
	if re, ok := remote.AsError(err); ok && re.Code == remote.CodeRejected {
		message := re.Message
		if message == "" {
			message = fallback
		}
		render.ServiceError(w, message, re.Status)
		return
	}

	l.Error("Commerce API call failed", "error", err)
	render.ServiceError(w, "Commerce service unavailable", http.StatusBadGateway)
}
