package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	web "practice/internal/adapters/http"
	"practice/internal/adapters/http/middleware"
	"practice/internal/adapters/http/perf"
	"practice/internal/adapters/objectstore"
	"practice/internal/adapters/storage"
	accountStore "practice/internal/adapters/storage/account"
	adviceStore "practice/internal/adapters/storage/advice"
	appointmentStore "practice/internal/adapters/storage/appointment"
	auditStore "practice/internal/adapters/storage/audit"
	outboxStore "practice/internal/adapters/storage/outbox"
	profileStore "practice/internal/adapters/storage/profile"
	therapyStore "practice/internal/adapters/storage/therapy"
	"practice/internal/application/imageupload"
	"practice/internal/application/orchestrators"
	"practice/internal/domain/account"
)

const (
	adminEmail  = "admin@practice.test"
	clientEmail = "parent@example.com"
	password    = "correct horse battery"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  web.Stores
}

// newTestApp creates a fully wired app with a temp SQLite DB, local media store and HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	stores := web.Stores{
		AccountStore:     accountStore.NewSQLiteStore(db),
		ProfileStore:     profileStore.NewSQLiteStore(db),
		TherapyStore:     therapyStore.NewSQLiteStore(db),
		AdviceStore:      adviceStore.NewSQLiteStore(db),
		AppointmentStore: appointmentStore.NewSQLiteStore(db),
		OutboxStore:      outboxStore.NewSQLiteStore(db),
		AuditStore:       auditStore.NewSQLiteStore(db),
	}

	ctx := context.Background()
	for email, role := range map[string]string{adminEmail: account.RoleAdmin, clientEmail: account.RoleClient} {
		if _, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
			Email: email, Password: password, Role: role,
		}, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore}); err != nil {
			t.Fatalf("failed to create %s: %v", email, err)
		}
	}
	if err := orchestrators.ExecuteSeedCatalog(ctx, orchestrators.TherapyDeps{TherapyStore: stores.TherapyStore}); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	collector := perf.NewCollector(perf.DefaultRingSize)
	media := objectstore.NewLocalStore(filepath.Join(tmpDir, "media"), baseURL, []byte("browser-test-signing-key"))
	httpClient := &http.Client{Timeout: 10 * time.Second}
	handler := web.NewMux(stores, web.Options{
		StaticDir:      filepath.Join(tmpDir, "static"),
		Collector:      collector,
		Uploader:       imageupload.NewUploader(media, objectstore.NewHTTPPutter(httpClient, collector), media.CDNBase(), nil),
		Issuer:         media,
		Media:          media,
		Notifier:       &orchestrators.Notifier{Outbox: stores.OutboxStore, ReplyTo: "hello@practice.test"},
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port)},
		RateLimiter:    middleware.NewRateLimiter(100, 100),
		HorizonWeeks:   4,
	})

	srv := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: handler}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		srv.Close()
		db.Close()
		t.Skipf("playwright driver unavailable: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		srv.Close()
		db.Close()
		t.Skipf("chromium unavailable: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
	}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in through the form and waits for the landing page.
func (a *testApp) login(t *testing.T, page playwright.Page, email, landing string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(password); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click sign in: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+landing, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not land on %s: %v", landing, err)
	}
}

// expectText fails unless the page body contains text.
func expectText(t *testing.T, page playwright.Page, text string) {
	t.Helper()
	body, err := page.Locator("body").TextContent()
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(body, text) {
		t.Errorf("page %s does not contain %q", page.URL(), text)
	}
}
