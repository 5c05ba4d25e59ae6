package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestSuccess_NoEnvelope(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "Cimento"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "Cimento" {
		t.Errorf("expected raw entity, got %s", w.Body.String())
	}
	if _, ok := body["data"]; ok {
		t.Error("success body must not be wrapped")
	}
}

func TestCreated_ArrayBody(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, []int{1, 2})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[1,2]" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestConvenienceHelpers(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(*gin.Context, string)
		status int
	}{
		{"BadRequest", BadRequest, http.StatusBadRequest},
		{"Unauthorized", Unauthorized, http.StatusUnauthorized},
		{"Forbidden", Forbidden, http.StatusForbidden},
		{"NotFound", NotFound, http.StatusNotFound},
		{"Conflict", Conflict, http.StatusConflict},
		{"TooManyRequests", TooManyRequests, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				tt.fn(c, "falhou")
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if body := parseError(t, w); body.Message != "falhou" {
				t.Errorf("expected message 'falhou', got %q", body.Message)
			}
		})
	}
}

func TestError_WithAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, NewConflict("convite já existe"))
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	if body := parseError(t, w); body.Message != "convite já existe" {
		t.Errorf("expected message 'convite já existe', got %q", body.Message)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.Join(errors.New("context"), NewNotFound("material não encontrado")))
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestError_GenericErrorHidesDetail(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("pq: relation \"materials\" does not exist"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	body := parseError(t, w)
	if body.Message != InternalErrorMessage {
		t.Errorf("expected generic message, got %q", body.Message)
	}
	if strings.Contains(w.Body.String(), "relation") {
		t.Error("internal detail leaked into response")
	}
}

type movementInput struct {
	Quantity   *float64 `json:"quantity" binding:"required"`
	Type       string   `json:"type" binding:"required"`
	MaterialID uint     `json:"materialId" binding:"required"`
	Email      string   `json:"email" binding:"omitempty,email"`
}

func TestNewValidation_RequiredFields(t *testing.T) {
	err := binding.Validator.ValidateStruct(&movementInput{})
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr := NewValidation(err)
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", appErr.HTTPStatus)
	}
	if appErr.Message != "Campos obrigatórios não preenchidos: quantity, type, materialId" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if len(appErr.Errors) != 3 {
		t.Errorf("expected 3 field errors, got %v", appErr.Errors)
	}
}

func TestNewValidation_MixedErrors(t *testing.T) {
	q := 1.0
	err := binding.Validator.ValidateStruct(&movementInput{Quantity: &q, Type: "entry", MaterialID: 1, Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr := NewValidation(err)
	if appErr.Message != "Dados inválidos" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if len(appErr.Errors) != 1 || appErr.Errors[0] != "email deve ser um email válido" {
		t.Errorf("unexpected errors %v", appErr.Errors)
	}
}

func TestNewValidation_MalformedBody(t *testing.T) {
	appErr := NewValidation(errors.New("unexpected EOF"))
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", appErr.HTTPStatus)
	}
	if appErr.Message != "Corpo da requisição inválido" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	err := NewNotFound("usuário não encontrado")
	if err.Error() != "usuário não encontrado" {
		t.Errorf("expected 'usuário não encontrado', got %q", err.Error())
	}
}
