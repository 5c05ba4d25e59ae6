package handlers

import (
	"strconv"

	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// parseID reads a positive integer id from a path or query value.
func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pathID parses a path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name, label string) (uint, bool) {
	id, ok := parseID(c.Param(name))
	if !ok {
		response.BadRequest(c, label+" inválido")
		return 0, false
	}
	return id, true
}

// queryProjectID reads the mandatory projectId query parameter.
func queryProjectID(c *gin.Context) (uint, bool) {
	raw := c.Query("projectId")
	if raw == "" {
		response.Error(c, &response.AppError{
			HTTPStatus: 400,
			Message:    "Campos obrigatórios não preenchidos: projectId",
			Errors:     []string{"projectId é obrigatório"},
		})
		return 0, false
	}
	id, ok := parseID(raw)
	if !ok {
		response.BadRequest(c, "ID do projeto inválido")
		return 0, false
	}
	return id, true
}

// actingUser rejects body fields that name someone other than the caller.
// A zero id means the field was omitted.
func actingUser(c *gin.Context, claimed uint) (uint, bool) {
	userID := middleware.GetUserID(c)
	if claimed != 0 && claimed != userID {
		response.Error(c, services.ErrActingUserMismatch)
		return 0, false
	}
	return userID, true
}
