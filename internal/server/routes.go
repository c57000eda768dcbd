package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tomlord1122/todo-service/internal/service"
)

// todoNotFoundDetail is the 404 detail clients of the todo API match on.
const todoNotFoundDetail = "Todo アイテムが見つかりません"

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", s.HelloWorldHandler)
	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/todos", func(r chi.Router) {
		r.Post("/", s.createTodoHandler)
		r.Get("/", s.getAllTodosHandler)
		r.Get("/{todo_id}", s.getTodoByIDHandler)
		r.Put("/{todo_id}", s.updateTodoHandler)
		r.Delete("/{todo_id}", s.deleteTodoHandler)
	})

	r.Get("/users/{user_id}/todos/{todo_id}", s.getUserTodoHandler)

	return r
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.health.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err, "decoding create todo request")
		return
	}

	todo, err := s.todoService.CreateTodo(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err, "creating todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) getAllTodosHandler(w http.ResponseWriter, r *http.Request) {
	var req service.ListTodosRequest
	query := r.URL.Query()

	if sizeStr := query.Get("size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, fmt.Sprintf("size must be an integer, got %q", sizeStr))
			return
		}
		req.Size = &size
	}
	if doneStr := query.Get("done"); doneStr != "" {
		done, err := parseBool(doneStr)
		if err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		req.Done = &done
	}

	todos, err := s.todoService.ListTodos(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err, "listing todos")
		return
	}

	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) getTodoByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "todo_id")
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	todo, err := s.todoService.GetTodoByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "getting todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) getUserTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := intURLParam(r, "user_id")
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	todoID, err := intURLParam(r, "todo_id")
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"user_id": userID, "todo_id": todoID})
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "todo_id")
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var req service.UpdateTodoRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err, "decoding update todo request")
		return
	}

	todo, err := s.todoService.UpdateTodo(r.Context(), id, req)
	if err != nil {
		respondWithServiceError(w, err, "updating todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "todo_id")
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	todo, err := s.todoService.DeleteTodo(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "deleting todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

// decodeJSONBody decodes exactly one JSON object into dst. Unknown fields are
// ignored; every decoding failure is reported as NotValid.
func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.NewNotValid(nil, "Request body must contain a single JSON object")
	}
	if !utf8.Valid(raw) {
		return errors.NewNotValid(nil, "Request body must be valid UTF-8")
	}
	if bytes.Equal(raw, []byte("null")) {
		return errors.NewNotValid(nil, "Request body must be a JSON object, got null")
	}
	return decodeError(json.Unmarshal(raw, dst))
}

func decodeError(err error) error {
	if err == nil {
		return nil
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.Is(err, errors.NotValid):
		return err
	case errors.As(err, &syntaxError):
		return errors.NewNotValid(nil, fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.NewNotValid(nil, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		return errors.NewNotValid(nil, fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset))
	case errors.Is(err, io.EOF):
		return errors.NewNotValid(nil, "Request body must not be empty")
	default:
		return errors.Annotate(err, "reading request body")
	}
}

func intURLParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

// parseBool accepts the spellings query strings commonly use for booleans.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on", "t", "y":
		return true, nil
	case "false", "0", "no", "off", "f", "n":
		return false, nil
	}
	return false, fmt.Errorf("done must be a boolean, got %q", s)
}

// respondWithServiceError maps error kinds onto status codes.
// NotValid messages are client-facing; anything unexpected is logged and
// hidden behind a generic detail.
func respondWithServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, errors.NotFound):
		respondWithError(w, http.StatusNotFound, todoNotFoundDetail)
	case errors.Is(err, errors.NotValid):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Errorf("%s: %v", op, errors.ErrorStack(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondWithError(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, map[string]string{"detail": detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("marshaling JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
