// validate.go — проверка запросов по OpenAPI-контракту (kin-openapi).
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
)

// RequestValidator проверяет параметры и тело запроса по операции
// контракта, найденной по шаблону маршрута chi.
type RequestValidator struct {
	doc     *openapi3.T
	options *openapi3filter.Options
	logger  *slog.Logger
}

// NewRequestValidator создаёт валидатор по загруженному контракту.
func NewRequestValidator(doc *openapi3.T, logger *slog.Logger) *RequestValidator {
	return &RequestValidator{
		doc: doc,
		options: &openapi3filter.Options{
			// Аутентификация выполняется Authenticator
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		logger: logger.With(slog.String("component", "openapi_validator")),
	}
}

// Middleware возвращает middleware проверки. Шаблон маршрута известен
// только после маршрутизации, поэтому middleware подключается внутри
// группы маршрутов (chi Group/With), а не на уровне корневого роутера.
// Маршруты, отсутствующие в контракте, пропускаются без проверки.
func (v *RequestValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := chi.RouteContext(r.Context())
			if rctx == nil {
				next.ServeHTTP(w, r)
				return
			}

			pattern := rctx.RoutePattern()
			pathItem := v.doc.Paths.Find(pattern)
			if pathItem == nil {
				next.ServeHTTP(w, r)
				return
			}
			operation := pathItem.GetOperation(r.Method)
			if operation == nil {
				next.ServeHTTP(w, r)
				return
			}

			params := make(map[string]string, len(rctx.URLParams.Keys))
			for i, key := range rctx.URLParams.Keys {
				params[key] = rctx.URLParams.Values[i]
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route: &routers.Route{
					Spec:      v.doc,
					Path:      pattern,
					PathItem:  pathItem,
					Method:    r.Method,
					Operation: operation,
				},
				Options: v.options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				v.logger.Debug("Запрос не соответствует контракту",
					slog.String("method", r.Method),
					slog.String("path", pattern),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, validationMessage(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validationMessage формирует краткое сообщение для клиента.
func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return "Invalid request."
	}

	if reqErr.Parameter != nil {
		return fmt.Sprintf("Invalid parameter '%s'.", reqErr.Parameter.Name)
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(reqErr.Err, &schemaErr) {
		if field := strings.Join(schemaErr.JSONPointer(), "."); field != "" {
			return fmt.Sprintf("Invalid field '%s': %s", field, schemaErr.Reason)
		}
		return "Invalid request body: " + schemaErr.Reason
	}
	if reqErr.RequestBody != nil {
		return "Invalid request body."
	}
	return "Invalid request."
}
