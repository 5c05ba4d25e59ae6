package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/easystock/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// report json field names (materialId) instead of Go names (MaterialID)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	}
}

// InternalErrorMessage is the only text a 500 ever exposes.
const InternalErrorMessage = "Erro interno do servidor"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// AppError represents a structured application error with HTTP status.
type AppError struct {
	HTTPStatus int      // HTTP status code (e.g. 400, 404, 500)
	Message    string   // Human-readable error message
	Errors     []string // Optional per-field details
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Message: msg}
}

// NewValidation turns binding/validator errors into a 400 with field messages.
func NewValidation(err error) *AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := make([]string, 0, len(verrs))
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
			}
			details = append(details, fe.Field()+" "+validationMessage(fe))
		}
		msg := "Dados inválidos"
		if len(missing) == len(verrs) {
			msg = "Campos obrigatórios não preenchidos: " + strings.Join(missing, ", ")
		}
		return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg, Errors: details}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &AppError{
			HTTPStatus: http.StatusBadRequest,
			Message:    "Dados inválidos",
			Errors:     []string{typeErr.Field + " tem formato inválido"},
		}
	}

	return &AppError{HTTPStatus: http.StatusBadRequest, Message: "Corpo da requisição inválido"}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "é obrigatório"
	case "email":
		return "deve ser um email válido"
	case "min":
		return fmt.Sprintf("deve ter no mínimo %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("deve ter no máximo %s caracteres", fe.Param())
	case "oneof":
		return "deve ser um de: " + fe.Param()
	}
	return "é inválido"
}

// --- Gin response helpers ---

// Success sends a 200 OK response with the raw data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 Created response with the raw data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error sends an error response. If err is an *AppError, its status and
// message are used; otherwise the error is logged and a generic 500 is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorBody{Message: appErr.Message, Errors: appErr.Errors})
		return
	}
	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString(logger.ContextRequestID)).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, ErrorBody{Message: InternalErrorMessage})
}

// Validation renders a bind error as a 400.
func Validation(c *gin.Context, err error) {
	Error(c, NewValidation(err))
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, ErrorBody{Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorBody{Message: msg})
}

func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, ErrorBody{Message: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.JSON(http.StatusTooManyRequests, ErrorBody{Message: msg})
}
