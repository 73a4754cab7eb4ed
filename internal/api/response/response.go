// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/pkg/i18n"
)

type Meta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

type Body struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Meta    *Meta                  `json:"meta,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

func List(c *gin.Context, data interface{}, page, pageSize, total int) {
	c.JSON(http.StatusOK, Body{
		Success: true,
		Data:    data,
		Meta:    &Meta{Page: page, PageSize: pageSize, Total: total},
	})
}

// Error aborts the request with the status of err's kind. The message is
// localized by code from Accept-Language; internal causes are never exposed.
func Error(c *gin.Context, err error) {
	ae := apperror.From(err)
	msg := i18n.Localize(c.GetHeader("Accept-Language"), ae.Code, ae.Message, ae.Details)
	c.AbortWithStatusJSON(ae.Kind.HTTPStatus(), Body{
		Success: false,
		Error:   msg,
		Code:    ae.Code,
		Details: ae.Details,
	})
}
