package handler

import (
	"errors"
	"strconv"

	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/service"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the trial handlers.
type Handlers struct {
	Request   *RequestHandler
	Command   *CommandHandler
	Reference *ReferenceHandler
	SSE       *SSEHandler
}

// NewHandlers creates the trial handler bundle.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Request:   NewRequestHandler(svc.Lifecycle),
		Command:   NewCommandHandler(svc.Lifecycle),
		Reference: NewReferenceHandler(svc.Reference),
		SSE:       NewSSEHandler(),
	}
}

// === response envelope ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondCommandError maps the command-layer failure taxonomy onto the
// response envelope.
func RespondCommandError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "trial request not found")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "your role does not own this stage")
	case errors.Is(err, service.ErrInvalidTransition):
		Conflict(c, "command not applicable to the current status")
	case errors.As(err, &ve):
		BadRequest(c, ve.Error())
	default:
		InternalError(c, err.Error())
	}
}

// === request context helpers ===

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetUserName(c *gin.Context) string {
	userName, _ := c.Get("user_name")
	if name, ok := userName.(string); ok {
		return name
	}
	return ""
}

// GetUserRole returns the workflow role from the JWT roles claim. Users in
// this system hold a single workflow role per token.
func GetUserRole(c *gin.Context) entity.Role {
	roles, _ := c.Get("roles")
	if rs, ok := roles.([]string); ok && len(rs) > 0 {
		return entity.Role(rs[0])
	}
	return ""
}

// GetActor builds the command-layer actor from the JWT claims.
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   GetUserID(c),
		Name: GetUserName(c),
		Role: GetUserRole(c),
	}
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
