package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"github.com/atvirokodosprendimai/crmapi/internal/core/usecase"
)

const (
	timeFormat      = "2006-01-02T15:04:05.999999999Z07:00"
	maxJSONBodySize = 1 << 20
)

type Handler struct {
	entities *usecase.EntityService
	history  *usecase.HistoryService
	auth     *usecase.AuthService
}

func NewHandler(entities *usecase.EntityService, history *usecase.HistoryService, auth *usecase.AuthService) *Handler {
	return &Handler{entities: entities, history: history, auth: auth}
}

var entityRoutes = []struct {
	Path string
	Kind string
}{
	{"companies", domain.KindCompany},
	{"contacts", domain.KindContact},
	{"opportunities", domain.KindSalesOpportunity},
	{"projects", domain.KindProject},
	{"equipment", domain.KindEquipment},
	{"work-records", domain.KindWorkRecord},
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)
	r.Post("/v1/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireSession)
		pr.Post("/v1/logout", h.logout)
		pr.Get("/audit-logs", h.auditLogs)

		for _, route := range entityRoutes {
			kind := route.Kind
			base := "/v1/" + route.Path
			pr.Get(base, h.listEntities(kind))
			pr.Post(base, h.createEntity(kind))
			pr.Get(base+"/{id}", h.getEntity(kind))
			pr.Put(base+"/{id}", h.updateEntity(kind))
			pr.Delete(base+"/{id}", h.deleteEntity(kind))
		}
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string        `json:"token"`
	Actor actorResponse `json:"actor"`
}

type actorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createEntityRequest struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type entityResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req loginRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	token, actor, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Actor: toActorResponse(actor)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.auth.Logout(r.Context(), sessionToken(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": deleted})
}

func (h *Handler) createEntity(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		var req createEntityRequest
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := ensureEOF(decoder); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		entity, err := h.entities.Create(r.Context(), kind, req.ID, req.Data)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntityResponse(entity))
	}
}

func (h *Handler) updateEntity(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
		decoder := json.NewDecoder(r.Body)

		var data json.RawMessage
		if err := decoder.Decode(&data); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := ensureEOF(decoder); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}

		entity, err := h.entities.Update(r.Context(), kind, id, data)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntityResponse(entity))
	}
}

func (h *Handler) getEntity(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := h.entities.Get(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEntityResponse(entity))
	}
}

func (h *Handler) deleteEntity(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := h.entities.Delete(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
	}
}

func (h *Handler) listEntities(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := parseLimit(w, r)
		if !ok {
			return
		}

		entities, err := h.entities.List(r.Context(), kind, domain.EntityFilter{
			AfterID: r.URL.Query().Get("after"),
			Limit:   limit,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		result := make([]entityResponse, 0, len(entities))
		for _, entity := range entities {
			result = append(result, toEntityResponse(entity))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": result})
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.auth.Authenticate(r.Context(), sessionToken(r))
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(usecase.WithActor(r.Context(), actor)))
	})
}

func sessionToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("X-Session-Token"))
	if token == "" {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			token = strings.TrimSpace(auth[7:])
		}
	}
	return token
}

func toActorResponse(actor domain.Actor) actorResponse {
	return actorResponse{ID: actor.ID, Name: actor.Name, Email: actor.Email}
}

func toEntityResponse(entity domain.Entity) entityResponse {
	return entityResponse{
		ID:        entity.ID,
		Kind:      entity.Kind,
		Data:      entity.Data,
		CreatedAt: entity.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: entity.UpdatedAt.UTC().Format(timeFormat),
	}
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var schemaErr *domain.ErrSchemaViolation
	switch {
	case errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidData),
		errors.Is(err, domain.ErrMissingEntityKind),
		errors.Is(err, domain.ErrMissingEntityID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "schema validation failed",
			"details": schemaErr.Errors,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func openapiSpec() map[string]any {
	paths := map[string]any{
		"/v1/login": map[string]any{
			"post": map[string]any{"summary": "Log in and receive a session token"},
		},
		"/audit-logs": map[string]any{
			"get": map[string]any{"summary": "List the audit history of one entity, newest first"},
		},
	}
	for _, route := range entityRoutes {
		base := "/v1/" + route.Path
		paths[base] = map[string]any{
			"get":  map[string]any{"summary": "List " + route.Kind + " records"},
			"post": map[string]any{"summary": "Create a " + route.Kind + " record"},
		}
		paths[base+"/{id}"] = map[string]any{
			"get":    map[string]any{"summary": "Get a " + route.Kind + " record"},
			"put":    map[string]any{"summary": "Update a " + route.Kind + " record"},
			"delete": map[string]any{"summary": "Delete a " + route.Kind + " record"},
		}
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "crmapi",
			"version": "1.0.0",
		},
		"paths": paths,
	}
}
