package http

import (
	"errors"
	"net/http"
	"strings"

	"finbook/internal/auth"
	"finbook/internal/core"
	"finbook/internal/log"
)

type authPage struct {
	Email string
	Name  string
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Resolve(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", "Sign in", "", authPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	email := formValue(r, "email")
	password := r.FormValue("password")

	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, password) {
		// Same message for unknown email and wrong password.
		s.render(w, r, "login.html", "Sign in", "", authPage{
			Email: email,
			Error: "Invalid email or password.",
		})
		return
	}

	if err := s.sessions.Issue(r.Context(), w, user.ID); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to issue session", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	setFlash(w, "success", "Welcome back, "+user.Name+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Resolve(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "register.html", "Create account", "", authPage{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	email := formValue(r, "email")
	name := formValue(r, "name")
	password := r.FormValue("password")

	renderErr := func(msg string) {
		s.render(w, r, "register.html", "Create account", "", authPage{
			Email: email,
			Name:  name,
			Error: msg,
		})
	}

	u := core.User{Email: email, Name: name}
	if err := u.Validate(); err != nil {
		renderErr("Please enter a valid email address.")
		return
	}
	if name == "" {
		renderErr("Please enter your name.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			renderErr("Password must be between 8 and 72 characters.")
			return
		}
		s.logger.ErrorContext(r.Context(), "Password hash failed", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	u.PasswordHash = hash

	userID, err := s.store.CreateUser(r.Context(), u)
	if err != nil {
		if strings.Contains(err.Error(), "already registered") {
			renderErr("That email is already registered.")
			return
		}
		s.logger.ErrorContext(r.Context(), "User creation failed", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Issue(r.Context(), w, userID); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to issue session", log.FieldError, err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	setFlash(w, "success", "Account created. Welcome!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(r.Context(), w, r)
	setFlash(w, "success", "Signed out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
