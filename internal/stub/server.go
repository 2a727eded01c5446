package stub

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/http/middleware"
)

// Config controls the stub login endpoint. A request whose password equals
// RejectPassword is answered with 401.
type Config struct {
	RejectPassword string
	EnableOTelHTTP bool
}

type createdResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	cfg    Config
	nextID atomic.Int64
}

// NewRouter serves POST /login and POST /posts. The latter mirrors the public
// placeholder API the form targets by default.
func NewRouter(cfg Config) http.Handler {
	h := &handler{cfg: cfg}
	h.nextID.Store(100)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Post("/login", h.login)
	r.Post("/posts", h.login)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.EnableOTelHTTP {
		return otelhttp.NewHandler(r, "loginstub")
	}
	return r
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "content type must be application/json"})
		return
	}
	var creds form.Credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	if strings.TrimSpace(creds.Email) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}
	if h.cfg.RejectPassword != "" && creds.Password == h.cfg.RejectPassword {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: h.nextID.Add(1), Email: creds.Email})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
