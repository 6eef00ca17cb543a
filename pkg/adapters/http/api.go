package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed and validated OpenAPI document served by this adapter.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			swaggerErr = fmt.Errorf("failed to load OpenAPI document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			swaggerErr = fmt.Errorf("invalid OpenAPI document: %w", err)
			return
		}
		swaggerDoc = doc
	})
	return swaggerDoc, swaggerErr
}

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	// Key only streams events of this selector key.
	Key *string `form:"key,omitempty" json:"key,omitempty"`
}

// ServerInterface represents all server handlers of the OpenAPI document.
type ServerInterface interface {
	// (POST /select)
	SelectSegment(w http.ResponseWriter, r *http.Request)
	// (POST /batch)
	SelectBatch(w http.ResponseWriter, r *http.Request)
	// (GET /selectors)
	ListSelectors(w http.ResponseWriter, r *http.Request)
	// (GET /selectors/{key})
	GetSelector(w http.ResponseWriter, r *http.Request, key string)
	// (DELETE /selectors/{key})
	ResetSelector(w http.ResponseWriter, r *http.Request, key string)
	// (GET /events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams)
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
}

// HandlerFromMux registers the operations of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	r.Post("/select", si.SelectSegment)
	r.Post("/batch", si.SelectBatch)
	r.Get("/selectors", si.ListSelectors)
	r.Get("/selectors/{key}", func(w http.ResponseWriter, r *http.Request) {
		key, ok := bindKey(w, r)
		if ok {
			si.GetSelector(w, r, key)
		}
	})
	r.Delete("/selectors/{key}", func(w http.ResponseWriter, r *http.Request) {
		key, ok := bindKey(w, r)
		if ok {
			si.ResetSelector(w, r, key)
		}
	})
	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		var params SubscribeEventsParams
		if err := runtime.BindQueryParameter("form", true, false, "key", r.URL.Query(), &params.Key); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter key: %w", err))
			return
		}
		si.SubscribeEvents(w, r, params)
	})
	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	return r
}

func bindKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	var key string
	err := runtime.BindStyledParameterWithOptions("simple", "key", chi.URLParam(r, "key"), &key,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter key: %w", err))
		return "", false
	}
	return key, true
}

// ValidateRequests checks every request that matches an operation of the OpenAPI
// document against it. Requests to other paths (metrics, docs) pass through untouched.
func ValidateRequests(logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return validator(router, logger, next)
	}, nil
}

func validator(router routers.Router, logger *slog.Logger, next http.Handler) http.Handler {
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options:    options,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			logger.Warn("Request rejected by OpenAPI validation", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
