package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"github.com/vidhub/backend/docs"
	"github.com/vidhub/backend/internal/apperr"
)

// OpenAPIDoc serves the document registered by the docs package.
func OpenAPIDoc(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		writeError(c, apperr.Internal("openapi document unavailable", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
