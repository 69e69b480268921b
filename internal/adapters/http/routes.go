package web

import (
	"net/http"

	"practice/internal/adapters/http/middleware"
	"practice/internal/domain/account"
)

func (s *server) registerRoutes(mux *http.ServeMux) {
	admin := middleware.RequireRole(account.RoleAdmin)
	auth := middleware.RequireAuth

	// Public
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))))
	mux.HandleFunc("GET /services", s.handleServices)
	mux.HandleFunc("GET /services/{id}", s.handleService)
	mux.HandleFunc("GET /advice", s.handleAdviceList)
	mux.HandleFunc("GET /advice/{slug}", s.handleAdviceArticle)
	mux.HandleFunc("GET /schedule", s.handleSchedule)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)

	// Signed in
	mux.Handle("GET /profile", auth(http.HandlerFunc(s.handleProfile)))
	mux.Handle("GET /profile/edit", auth(http.HandlerFunc(s.handleProfileEditForm)))
	mux.Handle("POST /profile/edit", auth(http.HandlerFunc(s.handleProfileEdit)))
	mux.Handle("GET /profile/appointments", auth(http.HandlerFunc(s.handleMyAppointments)))
	mux.Handle("GET /profile/password", auth(http.HandlerFunc(s.handlePasswordForm)))
	mux.Handle("POST /profile/password", auth(http.HandlerFunc(s.handleChangePassword)))
	mux.Handle("POST /appointments", auth(http.HandlerFunc(s.handleBook)))
	mux.Handle("POST /appointments/{id}/cancel", auth(http.HandlerFunc(s.handleCancel)))
	mux.Handle("POST /api/uploads/presign", auth(http.HandlerFunc(s.handlePresign)))

	// Admin
	mux.Handle("GET /admin", admin(http.HandlerFunc(s.handleAdminDashboard)))
	mux.Handle("GET /admin/therapies", admin(http.HandlerFunc(s.handleAdminTherapies)))
	mux.Handle("GET /admin/therapies/new", admin(http.HandlerFunc(s.handleAdminTherapyForm)))
	mux.Handle("POST /admin/therapies", admin(http.HandlerFunc(s.handleAdminTherapySave)))
	mux.Handle("GET /admin/therapies/{id}", admin(http.HandlerFunc(s.handleAdminTherapyForm)))
	mux.Handle("POST /admin/therapies/{id}", admin(http.HandlerFunc(s.handleAdminTherapySave)))
	mux.Handle("POST /admin/therapies/{id}/delete", admin(http.HandlerFunc(s.handleAdminTherapyDelete)))
	mux.Handle("GET /admin/advice", admin(http.HandlerFunc(s.handleAdminAdvice)))
	mux.Handle("GET /admin/advice/new", admin(http.HandlerFunc(s.handleAdminAdviceForm)))
	mux.Handle("POST /admin/advice", admin(http.HandlerFunc(s.handleAdminAdviceSave)))
	mux.Handle("GET /admin/advice/{id}", admin(http.HandlerFunc(s.handleAdminAdviceForm)))
	mux.Handle("POST /admin/advice/{id}", admin(http.HandlerFunc(s.handleAdminAdviceSave)))
	mux.Handle("POST /admin/advice/{id}/publish", admin(http.HandlerFunc(s.handleAdminAdvicePublish)))
	mux.Handle("POST /admin/advice/{id}/delete", admin(http.HandlerFunc(s.handleAdminAdviceDelete)))
	mux.Handle("GET /admin/users", admin(http.HandlerFunc(s.handleAdminUsers)))
	mux.Handle("POST /admin/users/{id}/role", admin(http.HandlerFunc(s.handleAdminUserRole)))
	mux.Handle("POST /admin/users/{id}/delete", admin(http.HandlerFunc(s.handleAdminUserDelete)))
	mux.Handle("GET /admin/appointments", admin(http.HandlerFunc(s.handleAdminAppointments)))
	mux.Handle("POST /admin/appointments/{id}/complete", admin(http.HandlerFunc(s.handleAdminAppointmentComplete)))
	mux.Handle("POST /admin/appointments/{id}/cancel", admin(http.HandlerFunc(s.handleAdminAppointmentCancel)))
	mux.Handle("GET /admin/outbox", admin(http.HandlerFunc(s.handleAdminOutbox)))
	mux.Handle("POST /admin/outbox/{id}/retry", admin(http.HandlerFunc(s.handleAdminOutboxRetry)))
	mux.Handle("POST /admin/outbox/{id}/abandon", admin(http.HandlerFunc(s.handleAdminOutboxAbandon)))
	mux.Handle("GET /admin/perf", admin(http.HandlerFunc(s.handleAdminPerf)))
	mux.Handle("GET /admin/audit", admin(http.HandlerFunc(s.handleAdminAudit)))

	// Local object store
	if s.opts.Media != nil {
		mux.HandleFunc("PUT /media/upload", s.opts.Media.HandleUpload)
		mux.Handle("GET /media/", s.opts.Media.FileServer())
	}
}
