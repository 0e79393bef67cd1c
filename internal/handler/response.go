package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/model"
)

func writeOK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, model.NewAPIResponse(status, data, message))
}

// writeError maps the error kind to a status once; the cause stays in c.Errors for the request log.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apperr.KindOf(err).HTTPStatus()
	c.JSON(status, model.NewAPIResponse(status, nil, apperr.MessageOf(err)))
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}
