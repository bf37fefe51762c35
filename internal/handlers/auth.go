package handlers

import (
	"log"
	"net/http"

	"github.com/acmetrans/mgcp/internal/auth"
	"github.com/acmetrans/mgcp/internal/config"
	"github.com/acmetrans/mgcp/internal/view"
)

// AuthHandler implements the director login. Credentials come from the
// injected config; the plaintext is bcrypt-hashed once at construction so the
// comparison path never sees it.
type AuthHandler struct {
	user     string
	passHash string
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	h := &AuthHandler{user: cfg.AdminUser}
	if cfg.AdminPass != "" {
		hash, err := auth.HashPassword(cfg.AdminPass)
		if err != nil {
			log.Printf("hashing admin password: %v", err)
			return h
		}
		h.passHash = hash
	}
	return h
}

// Login: GET renders the form, POST checks credentials and opens the session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		_ = view.Render(w, "login.html", map[string]any{})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user := r.Form.Get("username")
	pass := r.Form.Get("password")
	if h.passHash == "" || user != h.user || !auth.VerifyPassword(h.passHash, pass) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = view.Render(w, "login.html", map[string]any{"Error": "Credenciales inválidas"})
		return
	}
	auth.CreateSession(w, user)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout: GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
