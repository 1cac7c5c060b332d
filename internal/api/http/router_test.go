package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/api/http/handlers"
	"github.com/eaata/helpdesk/internal/auth"
	"github.com/eaata/helpdesk/internal/events"
	"github.com/eaata/helpdesk/internal/observability"
	"github.com/eaata/helpdesk/internal/persistence"
	"github.com/eaata/helpdesk/internal/realtime"
	"github.com/eaata/helpdesk/internal/repository"
	"github.com/eaata/helpdesk/internal/service"
	"github.com/eaata/helpdesk/internal/storage"
)

type testServer struct {
	app        *fiber.App
	tokens     *auth.TokenManager
	configPath string
	uploadDir  string
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	logger := zap.NewNop()

	db, err := persistence.OpenSQLite(ctx, filepath.Join(dir, "test.sqlite"), logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := persistence.RunMigrations(ctx, db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ticketRepo := repository.NewTicketRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(realtime.DefaultBuffer, logger)
	t.Cleanup(hub.Close)

	ticketService := service.NewTicketService(service.TicketDependencies{TicketRepo: ticketRepo, Dispatcher: dispatcher, Logger: logger})
	commentService := service.NewCommentService(service.CommentDependencies{CommentRepo: commentRepo, TicketRepo: ticketRepo, Dispatcher: dispatcher, Logger: logger})
	sectorService := service.NewSectorService(sectorRepo)
	reportService := service.NewReportService(service.ReportDependencies{TicketRepo: ticketRepo, SectorRepo: sectorRepo, Location: time.UTC})
	service.NewNotificationService(service.NotificationDependencies{Dispatcher: dispatcher, Publisher: hub, Logger: logger}).RegisterHandlers()
	historyService := service.NewHistoryService(service.HistoryDependencies{
		HistoryRepo: repository.NewTicketHistoryRepository(db),
		TicketRepo:  ticketRepo,
		Logger:      logger,
	})
	historyService.RegisterHandlers(dispatcher)

	uploadDir := filepath.Join(dir, "uploads")
	uploads := storage.NewUploads(uploadDir, "http://localhost:3000")
	tokens := auth.NewTokenManager("test-secret", 5)
	configPath := filepath.Join(dir, "config.json")
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("helpdesk", "test", db, nil),
		Metrics:  handlers.NewMetricsHandler(metrics),
		Tickets:  handlers.NewTicketsHandler(ticketService, commentService, reportService, uploads),
		Comments: handlers.NewCommentsHandler(commentService),
		History:  handlers.NewHistoryHandler(historyService),
		Sectors:  handlers.NewSectorsHandler(sectorService),
		Uploads:  handlers.NewUploadsHandler(uploads),
		Reports:  handlers.NewReportHandler(reportService, sectorService),
		Config:   handlers.NewConfigHandler(configPath, logger),
		Hub:      hub,
		Tokens:   tokens,
	})
	return &testServer{app: app, tokens: tokens, configPath: configPath, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, nethttp.Header, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request) (int, nethttp.Header, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, resp.Header, raw
}

func decode(t *testing.T, raw []byte, into any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if into != nil {
		if err := json.Unmarshal(env.Data, into); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

type ticketBody struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Department string  `json:"department"`
	Status     string  `json:"status"`
	DueDate    *string `json:"dueDate"`
	ClosedAt   *string `json:"closedAt"`
	CreatedAt  string  `json:"createdAt"`
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := setupTestServer(t)

	status, _, raw := s.do(t, "POST", "/tickets", map[string]any{
		"title":       "Printer jam",
		"description": "<p>Paper stuck</p>",
		"department":  "IT",
		"dueDate":     "2030-01-10",
	}, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d body=%s", status, raw)
	}
	var created ticketBody
	decode(t, raw, &created)
	if created.ID <= 0 || created.Status != "open" || created.ClosedAt != nil {
		t.Fatalf("created = %+v", created)
	}
	if created.DueDate == nil || !strings.HasPrefix(*created.DueDate, "2030-01-10") {
		t.Errorf("dueDate = %v", created.DueDate)
	}

	path := "/tickets/" + itoa(created.ID)
	status, _, raw = s.do(t, "PATCH", path, map[string]any{"status": "closed", "dueDate": ""}, nil)
	if status != fiber.StatusOK {
		t.Fatalf("patch status = %d body=%s", status, raw)
	}
	var updated ticketBody
	decode(t, raw, &updated)
	if updated.Status != "closed" || updated.ClosedAt == nil || updated.DueDate != nil {
		t.Errorf("updated = %+v", updated)
	}

	status, _, raw = s.do(t, "GET", path+"/history", nil, nil)
	var history []struct {
		ChangeType string  `json:"changeType"`
		OldValue   *string `json:"oldValue"`
		NewValue   *string `json:"newValue"`
	}
	decode(t, raw, &history)
	if status != fiber.StatusOK || len(history) != 2 || history[0].ChangeType != "created" ||
		history[1].ChangeType != "status_changed" || *history[1].OldValue != "open" || *history[1].NewValue != "closed" {
		t.Errorf("history status=%d entries=%s", status, raw)
	}

	status, _, raw = s.do(t, "PATCH", path, map[string]any{"status": "done"}, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("invalid status code = %d body=%s", status, raw)
	}

	status, _, raw = s.do(t, "GET", "/tickets?status=closed&department=IT", nil, nil)
	var list []ticketBody
	decode(t, raw, &list)
	if status != fiber.StatusOK || len(list) != 1 {
		t.Errorf("list status=%d len=%d", status, len(list))
	}

	status, _, raw = s.do(t, "GET", "/tickets/departments", nil, nil)
	var departments []string
	decode(t, raw, &departments)
	if status != fiber.StatusOK || len(departments) != 1 || departments[0] != "IT" {
		t.Errorf("departments = %v", departments)
	}

	status, headers, raw := s.do(t, "GET", path+"/pdf", nil, nil)
	if status != fiber.StatusOK || !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatalf("ticket pdf status=%d", status)
	}
	if got := first(headers, fiber.HeaderContentDisposition); got != "attachment; filename=ticket-"+itoa(created.ID)+".pdf" {
		t.Errorf("content disposition = %q", got)
	}

	if status, _, _ = s.do(t, "DELETE", path, nil, nil); status != fiber.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	status, _, raw = s.do(t, "GET", path, nil, nil)
	env := decode(t, raw, nil)
	if status != fiber.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("get deleted: status=%d body=%s", status, raw)
	}
}

func TestTicketIDValidation(t *testing.T) {
	s := setupTestServer(t)
	for _, path := range []string{"/tickets/abc", "/tickets/0", "/tickets/-3"} {
		status, _, raw := s.do(t, "GET", path, nil, nil)
		env := decode(t, raw, nil)
		if status != fiber.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_FAILED" {
			t.Errorf("%s: status=%d body=%s", path, status, raw)
		}
	}

	status, _, _ := s.do(t, "POST", "/tickets", map[string]any{"title": "  "}, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("blank title status = %d", status)
	}
	status, _, _ = s.do(t, "POST", "/tickets", map[string]any{"title": "x", "dueDate": "tomorrow"}, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("bad dueDate status = %d", status)
	}
}

func TestCommentsOverHTTP(t *testing.T) {
	s := setupTestServer(t)
	_, _, raw := s.do(t, "POST", "/tickets", map[string]any{"title": "VPN down"}, nil)
	var ticket ticketBody
	decode(t, raw, &ticket)
	base := "/tickets/" + itoa(ticket.ID) + "/comments"

	status, _, _ := s.do(t, "POST", base, map[string]any{"autor": "ana", "conteudo": "  "}, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("empty comment status = %d", status)
	}
	status, _, _ = s.do(t, "POST", "/tickets/999/comments", map[string]any{"conteudo": "hi"}, nil)
	if status != fiber.StatusNotFound {
		t.Errorf("comment on missing ticket status = %d", status)
	}

	status, _, raw = s.do(t, "POST", base, map[string]any{"autor": "ana", "conteudo": "restarted the router"}, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("add comment status = %d body=%s", status, raw)
	}
	var comment struct {
		ID       int64  `json:"id"`
		TicketID int64  `json:"ticketId"`
		Conteudo string `json:"conteudo"`
	}
	decode(t, raw, &comment)
	if comment.TicketID != ticket.ID {
		t.Errorf("comment = %+v", comment)
	}

	status, _, raw = s.do(t, "PATCH", "/tickets/comments/"+itoa(comment.ID), map[string]any{"conteudo": "fixed"}, nil)
	decode(t, raw, &comment)
	if status != fiber.StatusOK || comment.Conteudo != "fixed" {
		t.Errorf("update comment status=%d comment=%+v", status, comment)
	}

	_, _, raw = s.do(t, "GET", base, nil, nil)
	var comments []json.RawMessage
	decode(t, raw, &comments)
	if len(comments) != 1 {
		t.Errorf("comments = %d, want 1", len(comments))
	}

	s.do(t, "DELETE", "/tickets/"+itoa(ticket.ID), nil, nil)
	_, _, raw = s.do(t, "GET", base, nil, nil)
	decode(t, raw, &comments)
	if len(comments) != 0 {
		t.Errorf("comments after ticket delete = %d", len(comments))
	}
}

func TestSectorsOverHTTP(t *testing.T) {
	s := setupTestServer(t)
	status, _, raw := s.do(t, "POST", "/sectors", map[string]any{"name": "Finance"}, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("create sector status = %d body=%s", status, raw)
	}
	var sector struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	decode(t, raw, &sector)

	status, _, raw = s.do(t, "POST", "/sectors", map[string]any{"name": "Finance"}, nil)
	env := decode(t, raw, nil)
	if status != fiber.StatusConflict || env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Errorf("duplicate sector status=%d body=%s", status, raw)
	}

	status, _, _ = s.do(t, "GET", "/sectors/"+itoa(sector.ID), nil, nil)
	if status != fiber.StatusOK {
		t.Errorf("get sector status = %d", status)
	}
	if status, _, _ = s.do(t, "DELETE", "/sectors/"+itoa(sector.ID), nil, nil); status != fiber.StatusOK {
		t.Errorf("delete sector status = %d", status)
	}
	if status, _, _ = s.do(t, "DELETE", "/sectors/"+itoa(sector.ID), nil, nil); status != fiber.StatusNotFound {
		t.Errorf("delete missing sector status = %d", status)
	}
}

func TestReportSummaryAndPDF(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", "/sectors", map[string]any{"name": "IT"}, nil)
	for _, dept := range []string{"IT", "IT", "", "Sales"} {
		s.do(t, "POST", "/tickets", map[string]any{"title": "t", "department": dept}, nil)
	}
	today := time.Now().UTC().Format("2006-01-02")
	query := "?startDate=" + today + "&endDate=" + today

	status, _, raw := s.do(t, "GET", "/report/summary"+query, nil, nil)
	if status != fiber.StatusOK {
		t.Fatalf("summary status = %d body=%s", status, raw)
	}
	var summary struct {
		Metrics struct {
			Total   int `json:"total"`
			Open    int `json:"open"`
			Pending int `json:"pending"`
		} `json:"metrics"`
		Departments []struct {
			Name     string `json:"name"`
			NoSector bool   `json:"noSector"`
			Total    int    `json:"total"`
		} `json:"departments"`
		Tickets []json.RawMessage `json:"tickets"`
	}
	decode(t, raw, &summary)
	if summary.Metrics.Total != 4 || summary.Metrics.Open != 4 || summary.Metrics.Pending != 4 || len(summary.Tickets) != 4 {
		t.Errorf("metrics = %+v tickets=%d", summary.Metrics, len(summary.Tickets))
	}
	if len(summary.Departments) != 3 || summary.Departments[0].Name != "IT" || summary.Departments[0].Total != 2 ||
		summary.Departments[1].Name != "Sales" || !summary.Departments[2].NoSector {
		t.Errorf("departments = %+v", summary.Departments)
	}

	status, _, raw = s.do(t, "GET", "/tickets/report/period"+query+"&sector=IT", nil, nil)
	var tickets []ticketBody
	decode(t, raw, &tickets)
	if status != fiber.StatusOK || len(tickets) != 2 {
		t.Errorf("period status=%d tickets=%d", status, len(tickets))
	}

	status, headers, raw := s.do(t, "GET", "/report/pdf"+query+"&reportType=weekly", nil, nil)
	if status != fiber.StatusOK || !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatalf("report pdf status = %d", status)
	}
	if got := first(headers, fiber.HeaderContentType); got != "application/pdf" {
		t.Errorf("content type = %q", got)
	}
	want := "attachment; filename=report-weekly-" + today + "-" + today + ".pdf"
	if got := first(headers, fiber.HeaderContentDisposition); got != want {
		t.Errorf("content disposition = %q, want %q", got, want)
	}

	status, _, _ = s.do(t, "GET", "/report/summary?startDate="+today, nil, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("missing endDate status = %d", status)
	}
	status, _, _ = s.do(t, "GET", "/report/summary?startDate=2024-02-01&endDate=2024-01-01", nil, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("reversed range status = %d", status)
	}
}

func TestGeneratePDF(t *testing.T) {
	s := setupTestServer(t)
	metrics := map[string]any{"total": 1, "open": 1, "pending": 1}
	tickets := []map[string]any{{
		"id": 7, "title": "Laptop", "description": "<b>slow</b>", "department": "IT",
		"status": "open", "createdAt": "2024-01-02", "updatedAt": "2024-01-02T10:00:00Z",
	}}

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing reportData", map[string]any{"reportType": "weekly"}},
		{"missing metrics", map[string]any{"reportData": map[string]any{"tickets": tickets}}},
		{"missing tickets", map[string]any{"reportData": map[string]any{"metrics": metrics}}},
	}
	for _, tc := range cases {
		status, _, raw := s.do(t, "POST", "/report/generate-pdf", tc.body, nil)
		if status != fiber.StatusBadRequest {
			t.Errorf("%s: status=%d body=%s", tc.name, status, raw)
		}
	}

	status, headers, raw := s.do(t, "POST", "/report/generate-pdf", map[string]any{
		"reportType": "weekly",
		"startDate":  "2024-01-01",
		"endDate":    "2024-01-07",
		"reportData": map[string]any{"metrics": metrics, "tickets": tickets, "summary": "Quiet week"},
	}, nil)
	if status != fiber.StatusOK || !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatalf("generate status=%d body=%.200s", status, raw)
	}
	if got := first(headers, fiber.HeaderContentDisposition); got != "attachment; filename=report-weekly-2024-01-01-2024-01-07.pdf" {
		t.Errorf("content disposition = %q", got)
	}

	status, headers, _ = s.do(t, "POST", "/report/generate-pdf", map[string]any{
		"reportData": map[string]any{"metrics": metrics, "tickets": []any{}},
	}, nil)
	if status != fiber.StatusOK || first(headers, fiber.HeaderContentDisposition) != "attachment; filename=report-custom.pdf" {
		t.Errorf("empty report status=%d disposition=%q", status, first(headers, fiber.HeaderContentDisposition))
	}
}

func TestUploadsOverHTTP(t *testing.T) {
	s := setupTestServer(t)

	status, _, raw := s.upload(t, "shot.png", []byte("not really a png"))
	if status != fiber.StatusCreated {
		t.Fatalf("upload status = %d body=%s", status, raw)
	}
	var stored struct {
		FileName string `json:"filename"`
		URL      string `json:"url"`
		Size     int64  `json:"size"`
	}
	decode(t, raw, &stored)
	if stored.Size != 16 || stored.URL != "http://localhost:3000/upload/uploads/"+stored.FileName {
		t.Errorf("stored = %+v", stored)
	}
	if _, err := os.Stat(filepath.Join(s.uploadDir, stored.FileName)); err != nil {
		t.Errorf("stored file missing: %v", err)
	}

	status, headers, raw := s.do(t, "GET", "/upload/uploads/"+stored.FileName, nil, nil)
	if status != fiber.StatusOK || string(raw) != "not really a png" || first(headers, fiber.HeaderContentType) != "image/png" {
		t.Errorf("serve status=%d type=%q", status, first(headers, fiber.HeaderContentType))
	}

	if status, _, _ = s.upload(t, "notes.txt", []byte("x")); status != fiber.StatusBadRequest {
		t.Errorf("txt upload status = %d", status)
	}
	if status, _, _ = s.do(t, "DELETE", "/upload/image/"+stored.FileName, nil, nil); status != fiber.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if status, _, _ = s.do(t, "DELETE", "/upload/image/"+stored.FileName, nil, nil); status != fiber.StatusNotFound {
		t.Errorf("second delete status = %d", status)
	}
	if status, _, _ = s.do(t, "GET", "/upload/uploads/a..b.png", nil, nil); status != fiber.StatusBadRequest {
		t.Errorf("dotted name status = %d", status)
	}
}

func TestConfigEndpoints(t *testing.T) {
	s := setupTestServer(t)
	body := map[string]any{"type": "sqlite", "name": "desk.sqlite"}

	status, _, _ := s.do(t, "POST", "/config/db", body, nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("unauthenticated save status = %d", status)
	}

	token, _, err := s.tokens.GenerateAdminToken("ops")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	admin := map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
	status, _, _ = s.do(t, "POST", "/config/db", map[string]any{"type": "mysql"}, admin)
	if status != fiber.StatusBadRequest {
		t.Errorf("mysql save status = %d", status)
	}
	status, _, raw := s.do(t, "POST", "/config/db", body, admin)
	if status != fiber.StatusOK {
		t.Fatalf("save status = %d body=%s", status, raw)
	}
	if _, err := os.Stat(s.configPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	status, _, raw = s.do(t, "GET", "/config/db", nil, nil)
	var fc struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	decode(t, raw, &fc)
	if status != fiber.StatusOK || fc.Type != "sqlite" || fc.Name != "desk.sqlite" {
		t.Errorf("get config status=%d fc=%+v", status, fc)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	s := setupTestServer(t)

	if status, _, raw := s.do(t, "GET", "/health/ready", nil, nil); status != fiber.StatusOK {
		t.Errorf("ready status=%d body=%s", status, raw)
	}
	if status, _, _ := s.do(t, "GET", "/ws", nil, nil); status != fiber.StatusUpgradeRequired {
		t.Errorf("plain ws status = %d", status)
	}
	status, _, raw := s.do(t, "GET", "/nope", nil, nil)
	env := decode(t, raw, nil)
	if status != fiber.StatusNotFound || env.Error == nil {
		t.Errorf("unknown route status=%d body=%s", status, raw)
	}

	status, _, raw = s.do(t, "GET", "/metrics", nil, nil)
	var snap observability.Snapshot
	decode(t, raw, &snap)
	if status != fiber.StatusOK || len(snap.Requests) == 0 {
		t.Errorf("metrics status=%d snapshot=%+v", status, snap)
	}
}

func (s *testServer) upload(t *testing.T, filename string, content []byte) (int, nethttp.Header, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest("POST", "/upload/image", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return s.send(t, req)
}

func first(h nethttp.Header, key string) string {
	return h.Get(key)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
