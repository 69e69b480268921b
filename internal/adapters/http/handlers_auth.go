package web

import (
	"errors"
	"net/http"
	"strings"

	"practice/internal/adapters/http/middleware"
	"practice/internal/application/orchestrators"
	"practice/internal/domain/account"
	"practice/internal/domain/audit"
)

// safeNext returns next when it is a local path, "/profile" otherwise.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/profile"
	}
	return next
}

// startSession creates a session and sets its cookie.
func (s *server) startSession(w http.ResponseWriter, r *http.Request, sess middleware.Session) error {
	token, err := s.sessions.Create(r.Context(), sess)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token, s.opts.Secure, s.opts.SessionTTL)
	return nil
}

// handleLoginForm handles GET /login
func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", map[string]any{"Next": r.URL.Query().Get("next")})
}

// handleLogin handles POST /login
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	next := r.FormValue("next")

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}, orchestrators.LoginDeps{
		AccountStore: s.stores.AccountStore,
		Now:          s.opts.Now,
	})
	if err != nil {
		status, ok := errorStatus(err)
		if !ok {
			internalError(w, err)
			return
		}
		severity := audit.SeverityWarning
		if errors.Is(err, orchestrators.ErrAccountLocked) {
			severity = audit.SeverityCritical
		}
		s.audit(r, s.auditEventFor(r, middleware.Session{Email: account.NormalizeEmail(r.FormValue("email"))},
			audit.CategorySecurity, audit.ActionLoginFail).WithSeverity(severity).WithDescription(userMessage(err)))
		s.render(w, r, status, "login.html", map[string]any{
			"Error": userMessage(err),
			"Email": r.FormValue("email"),
			"Next":  next,
		})
		return
	}

	signedIn := middleware.Session{AccountID: result.AccountID, Email: result.Email, Role: result.Role}
	if err := s.startSession(w, r, signedIn); err != nil {
		internalError(w, err)
		return
	}
	s.audit(r, s.auditEventFor(r, signedIn, audit.CategorySecurity, audit.ActionLogin))
	if next == "" && result.Role == account.RoleAdmin {
		next = "/admin"
	}
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// handleLogout handles POST /logout
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromContext(r.Context()); token != "" {
		if err := s.sessions.Delete(r.Context(), token); err != nil {
			internalError(w, err)
			return
		}
	}
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		s.audit(r, s.auditEvent(r, audit.CategorySecurity, audit.ActionLogout))
	}
	middleware.ClearSessionCookie(w, s.opts.Secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleRegisterForm handles GET /register
func (s *server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", map[string]any{})
}

// handleRegister handles POST /register. A new client is signed in straight away.
func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.RegisterClientInput{
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Name:      r.FormValue("name"),
		Phone:     r.FormValue("phone"),
		ChildName: r.FormValue("child_name"),
	}
	fail := func(status int, msg string) {
		s.render(w, r, status, "register.html", map[string]any{"Error": msg, "Form": input})
	}
	if input.Password != r.FormValue("confirm_password") {
		fail(http.StatusBadRequest, "Passwords do not match")
		return
	}

	acct, err := orchestrators.ExecuteRegisterClient(r.Context(), input, orchestrators.RegisterClientDeps{
		AccountStore: s.stores.AccountStore,
		ProfileStore: s.stores.ProfileStore,
		GenerateID:   s.opts.GenerateID,
		Now:          s.opts.Now,
	})
	if err != nil {
		status, ok := errorStatus(err)
		if !ok {
			internalError(w, err)
			return
		}
		fail(status, userMessage(err))
		return
	}

	registered := middleware.Session{AccountID: acct.ID, Email: acct.Email, Role: acct.Role}
	if err := s.startSession(w, r, registered); err != nil {
		internalError(w, err)
		return
	}
	s.audit(r, s.auditEventFor(r, registered, audit.CategoryAccount, audit.ActionCreate).WithResource("account", acct.ID))
	http.Redirect(w, r, "/schedule", http.StatusSeeOther)
}

// handlePasswordForm handles GET /profile/password
func (s *server) handlePasswordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "password.html", map[string]any{})
}

// handleChangePassword handles POST /profile/password
func (s *server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if r.FormValue("new_password") != r.FormValue("confirm_password") {
		s.render(w, r, http.StatusBadRequest, "password.html", map[string]any{"Error": "New passwords do not match"})
		return
	}

	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: r.FormValue("current_password"),
		NewPassword:     r.FormValue("new_password"),
	}, orchestrators.ChangePasswordDeps{AccountStore: s.stores.AccountStore})
	if err != nil {
		status, ok := errorStatus(err)
		if !ok {
			internalError(w, err)
			return
		}
		s.render(w, r, status, "password.html", map[string]any{"Error": userMessage(err)})
		return
	}

	s.audit(r, s.auditEvent(r, audit.CategorySecurity, audit.ActionUpdate).
		WithResource("account", sess.AccountID).WithDescription("Password changed"))

	// Sign out every other device, keep this one.
	if err := s.sessions.DeleteAccount(r.Context(), sess.AccountID); err != nil {
		internalError(w, err)
		return
	}
	if err := s.startSession(w, r, sess); err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "password.html", map[string]any{"Saved": true})
}
