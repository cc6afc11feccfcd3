package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/handler"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/testutil/memstore"
	"github.com/omarrislam/Quiz-App/internal/validator"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var setupOnce sync.Once

type app struct {
	t      *testing.T
	db     *memstore.DB
	queue  *memstore.Queue
	engine *gin.Engine
}

func newApp(t *testing.T) *app {
	t.Helper()
	setupOnce.Do(validator.Setup)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	cfg := &config.Config{
		GinMode:         gin.TestMode,
		JWTSecret:       "router-test",
		JWTExpiry:       time.Hour,
		SecondCamExpiry: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}
	db := memstore.New()
	queue := &memstore.Queue{}

	auth := service.NewAuthService(cfg, db.Instructors())
	quizzes := service.NewQuizService(db.Quizzes(), db.Questions(), log)
	questions := service.NewQuestionService(db.Questions(), log)
	students := service.NewStudentService(db.Students(), log)
	invites := service.NewInvitationService(db.Quizzes(), db.Students(), db.Invitations(), db.Audit(),
		queue, memstore.NewLimiter(3), memstore.MailCheck{}, "https://quiz.test", log)
	attempts := service.NewAttemptService(db.Quizzes(), db.Questions(), db.Attempts(), db.Snapshots(), invites, auth, 1<<20, log)
	secondCam := service.NewSecondCamService(db.Quizzes(), db.Attempts(), db.Snapshots(), auth, 1<<20, log)
	dashboard := service.NewDashboardService(db.Quizzes(), db.Attempts(), db.Invitations(), db.Audit(), log)

	h := &Handlers{
		Auth:       handler.NewAuthHandler(auth),
		Quiz:       handler.NewQuizHandler(quizzes),
		Question:   handler.NewQuestionHandler(quizzes, questions, 1<<20),
		Student:    handler.NewStudentHandler(quizzes, students, 1<<20),
		Invitation: handler.NewInvitationHandler(quizzes, invites),
		Attempt:    handler.NewAttemptHandler(quizzes, attempts, 2<<20),
		SecondCam:  handler.NewSecondCamHandler(secondCam, log, nil, 2<<20),
		Dashboard:  handler.NewDashboardHandler(quizzes, dashboard),
		System:     handler.NewSystemHandler(map[string]handler.Pinger{"db": handler.PingFunc(func(context.Context) error { return nil })}),
	}
	return &app{t: t, db: db, queue: queue, engine: SetupRouter(ctx, auth, h, cfg, log)}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (a *app) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.serve(req, token)
}

func (a *app) upload(path, token, filename, content string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		a.t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req, token)
}

func (a *app) serve(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("%s %s: decode: %v (%s)", req.Method, req.URL.Path, err, w.Body.String())
		}
	}
	return w, env
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d: %s", w.Code, status, w.Body.String())
	}
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return v
}

func (a *app) register(email string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Grace", "email": email, "password": "correct-horse",
	})
	expect(a.t, w, http.StatusCreated)
	return decode[model.LoginResponse](a.t, env).Token
}

func (a *app) createQuiz(token string, settings map[string]any) model.Quiz {
	a.t.Helper()
	body := map[string]any{"title": "Midterm"}
	if settings != nil {
		body["settings"] = settings
	}
	w, env := a.do(http.MethodPost, "/api/v1/quizzes", token, body)
	expect(a.t, w, http.StatusCreated)
	return decode[struct{ Quiz model.Quiz }](a.t, env).Quiz
}

var otpPattern = regexp.MustCompile(`OTP: (\d{6})`)

// prepare fills a quiz with two questions and one student, publishes it and
// sends the invitation. It returns the emailed code.
func (a *app) prepare(token string, quizID string) string {
	a.t.Helper()
	base := "/api/v1/quizzes/" + quizID

	w, _ := a.upload(base+"/questions/import", token, "questions.csv",
		"Question,OptionA,OptionB,OptionC,OptionD,CorrectLetter\nOne?,a,b,c,d,A\nTwo?,a,b,c,d,B\n")
	expect(a.t, w, http.StatusOK)

	w, _ = a.upload(base+"/students/import", token, "students.csv", "Name,Email,StudentId\nAda,ada@example.com,\n")
	expect(a.t, w, http.StatusCreated)

	w, _ = a.do(http.MethodPatch, base+"/status", token, map[string]string{"status": "published"})
	expect(a.t, w, http.StatusOK)

	w, _ = a.do(http.MethodPost, base+"/invitations", token, nil)
	expect(a.t, w, http.StatusAccepted)

	job := a.queue.Last()
	if job == nil {
		a.t.Fatal("no mail queued")
	}
	m := otpPattern.FindStringSubmatch(job.Text)
	if m == nil {
		a.t.Fatalf("no code in mail: %q", job.Text)
	}
	return m[1]
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	w, _ := a.do(http.MethodGet, "/health", "", nil)
	expect(t, w, http.StatusOK)
}

func TestInstructorRoutesRequireToken(t *testing.T) {
	a := newApp(t)
	w, env := a.do(http.MethodGet, "/api/v1/quizzes", "", nil)
	expect(t, w, http.StatusUnauthorized)
	if env.Error == nil || env.Error.Code != "TOKEN_REQUIRED" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestForeignQuizIsNotFound(t *testing.T) {
	a := newApp(t)
	owner := a.register("owner@example.com")
	other := a.register("other@example.com")
	quiz := a.createQuiz(owner, nil)

	w, env := a.do(http.MethodGet, "/api/v1/quizzes/"+quiz.ID.String()+"/attempts", other, nil)
	expect(t, w, http.StatusNotFound)
	if env.Error.Code != "QUIZ_NOT_FOUND" {
		t.Fatalf("code = %s", env.Error.Code)
	}

	w, _ = a.do(http.MethodGet, "/api/v1/quizzes/not-a-uuid", owner, nil)
	expect(t, w, http.StatusBadRequest)
}

func TestAttemptFlow(t *testing.T) {
	a := newApp(t)
	token := a.register("grace@example.com")
	quiz := a.createQuiz(token, nil)
	quizID := quiz.ID.String()
	code := a.prepare(token, quizID)

	// Wrong code first.
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	w, env := a.do(http.MethodPost, "/api/v1/public/quizzes/"+quizID+"/verify-otp", "", map[string]string{
		"email": "ada@example.com", "otp": wrong,
	})
	expect(t, w, http.StatusUnauthorized)
	if env.Error.Code != "OTP_INVALID" {
		t.Fatalf("code = %s", env.Error.Code)
	}

	w, env = a.do(http.MethodPost, "/api/v1/public/quizzes/"+quizID+"/verify-otp", "", map[string]string{
		"email": "ada@example.com", "otp": code,
	})
	expect(t, w, http.StatusOK)
	started := decode[model.StartedAttempt](t, env)
	if len(started.Questions) != 2 {
		t.Fatalf("questions = %d", len(started.Questions))
	}
	attemptPath := "/api/v1/public/attempts/" + started.AttemptID.String()

	w, env = a.do(http.MethodPost, attemptPath+"/events", "", map[string]string{"type": "tab_hidden"})
	expect(t, w, http.StatusOK)
	if !decode[struct{ Recorded bool }](t, env).Recorded {
		t.Fatal("event not recorded")
	}

	w, _ = a.do(http.MethodPost, attemptPath+"/events", "", map[string]any{"type": "tab_hidden", "bogus": 1})
	expect(t, w, http.StatusBadRequest)

	answers := []map[string]any{}
	for _, q := range started.Questions {
		answers = append(answers, map[string]any{"question_id": q.ID, "selected_index": 0})
	}
	w, _ = a.do(http.MethodPost, attemptPath+"/finish", "", map[string]any{"answers": answers})
	expect(t, w, http.StatusOK)

	// The page-hide beacon arriving after the real finish.
	req := httptest.NewRequest(http.MethodPost, attemptPath+"/finish", strings.NewReader(`{"answers":[]}`))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	w, env = a.serve(req, "")
	expect(t, w, http.StatusConflict)
	if env.Error.Code != "ATTEMPT_ALREADY_ENDED" {
		t.Fatalf("code = %s", env.Error.Code)
	}

	w, env = a.do(http.MethodGet, attemptPath, "", nil)
	expect(t, w, http.StatusOK)
	if st := decode[model.AttemptStatusView](t, env); st.Status != model.AttemptStatusCompleted {
		t.Fatalf("status = %s", st.Status)
	}

	base := "/api/v1/quizzes/" + quizID
	w, env = a.do(http.MethodGet, base+"/attempts/"+started.AttemptID.String(), token, nil)
	expect(t, w, http.StatusOK)
	detail := decode[model.AttemptDetail](t, env)
	if detail.Attempt.Score.CorrectCount != 1 || detail.Attempt.Flags.SuspiciousEventsCount != 1 {
		t.Fatalf("detail = %+v", detail.Attempt)
	}

	w, env = a.do(http.MethodGet, base+"/dashboard", token, nil)
	expect(t, w, http.StatusOK)
	if m := decode[model.DashboardMetrics](t, env); m.CompletedCount != 1 || m.InvitedCount != 1 {
		t.Fatalf("metrics = %+v", m)
	}

	w, _ = a.do(http.MethodGet, base+"/export?format=csv", token, nil)
	expect(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "ada@example.com") {
		t.Fatalf("export = %q", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".csv") {
		t.Fatalf("disposition = %q", w.Header().Get("Content-Disposition"))
	}

	w, _ = a.do(http.MethodGet, base+"/export?format=pdf", token, nil)
	expect(t, w, http.StatusBadRequest)
}

func TestImportRejectsBadRows(t *testing.T) {
	a := newApp(t)
	token := a.register("grace@example.com")
	quiz := a.createQuiz(token, nil)

	w, env := a.upload("/api/v1/quizzes/"+quiz.ID.String()+"/students/import", token, "students.csv",
		"Name,Email,StudentId\nAda,not-an-email,\nBob,bob@example.com,\n")
	expect(t, w, http.StatusBadRequest)
	if env.Error.Code != "IMPORT_ROWS_INVALID" || env.Error.Fields["row_2"] == "" {
		t.Fatalf("error = %+v", env.Error)
	}

	w, _ = a.upload("/api/v1/quizzes/"+quiz.ID.String()+"/students/import", token, "students.pdf", "x")
	expect(t, w, http.StatusUnsupportedMediaType)
}

func TestSecondCamStream(t *testing.T) {
	a := newApp(t)
	token := a.register("grace@example.com")
	quiz := a.createQuiz(token, map[string]any{"enable_second_cam": true, "mobile_allowed": false})
	quizID := quiz.ID.String()
	code := a.prepare(token, quizID)

	w, env := a.do(http.MethodPost, "/api/v1/public/quizzes/"+quizID+"/verify-otp", "", map[string]string{
		"email": "ada@example.com", "otp": code,
	})
	expect(t, w, http.StatusOK)
	started := decode[model.StartedAttempt](t, env)
	if started.SecondCamToken == "" {
		t.Fatal("no second camera token")
	}

	srv := httptest.NewServer(a.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/attempts/" + started.AttemptID.String() + "/second-cam"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bogus", nil); err == nil {
		t.Fatal("dial with bad token succeeded")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token response = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+started.SecondCamToken, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var m map[string]any
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		return m
	}

	if m := read(); m["event"] != "connected" {
		t.Fatalf("first event = %v", m)
	}

	_ = conn.WriteJSON(map[string]any{"action": "ping"})
	if m := read(); m["event"] != "pong" {
		t.Fatalf("ping reply = %v", m)
	}

	_ = conn.WriteJSON(map[string]any{"action": "heartbeat", "mime": "image/jpeg", "data": "aGVsbG8=", "width": "640"})
	if m := read(); m["event"] != "ack" {
		t.Fatalf("heartbeat reply = %v", m)
	}
	caps, _ := a.db.Snapshots().ListSecondCam(context.Background(), started.AttemptID)
	if len(caps) != 1 || caps[0].Width != 640 {
		t.Fatalf("captures = %+v", caps)
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	if m := read(); m["event"] != "error" {
		t.Fatalf("malformed reply = %v", m)
	}

	w, _ = a.do(http.MethodPost, "/api/v1/quizzes/"+quizID+"/attempts/"+started.AttemptID.String()+"/terminate", token, map[string]string{"reason": "phone away"})
	expect(t, w, http.StatusOK)

	_ = conn.WriteJSON(map[string]any{"action": "heartbeat", "mime": "image/jpeg", "data": "aGVsbG8="})
	if m := read(); m["event"] != "ended" || m["reason"] != "ATTEMPT_NOT_ACTIVE" {
		t.Fatalf("after terminate = %v", m)
	}
}
