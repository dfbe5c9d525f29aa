package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar-chat/internal/bootstrap"
	"avatar-chat/internal/config"
	"avatar-chat/internal/database"
	"avatar-chat/internal/model"
	"avatar-chat/internal/platform/sqlite"
	"avatar-chat/internal/storage"
	httptransport "avatar-chat/internal/transport/http"
)

type echoGenerator struct {
	err error
}

func (g *echoGenerator) Generate(_ context.Context, prompts []string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "\n echo: " + prompts[0] + "  ", nil
}

// gatedSynthesizer blocks on the gate registered for a text until it is
// closed, announcing on entered first.
type gatedSynthesizer struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	entered chan string
}

func (s *gatedSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	gate := s.gates[text]
	s.mu.Unlock()
	if gate != nil {
		s.entered <- text
		<-gate
	}
	return []byte("mp3:" + text), nil
}

type testServer struct {
	app         *bootstrap.App
	router      *gin.Engine
	generator   *echoGenerator
	synthesizer *gatedSynthesizer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.New(context.Background(), filepath.Join(dir, "users.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	audio, err := storage.NewLocalAudioStore(filepath.Join(dir, "audio"))
	require.NoError(t, err)

	generator := &echoGenerator{}
	synthesizer := &gatedSynthesizer{gates: map[string]chan struct{}{}, entered: make(chan string, 1)}
	app := &bootstrap.App{
		Config: &config.Config{
			App:   config.AppConfig{Name: "avatar-chat", Env: "test", GinMode: gin.TestMode},
			Auth:  config.AuthConfig{BcryptCost: 4, RedirectURL: "/chat"},
			Audio: config.AudioConfig{Filename: "response.mp3", URLPrefix: "/audio/"},
		},
		DB:          db,
		Generator:   generator,
		Synthesizer: synthesizer,
		AudioStore:  audio,
		StartedAt:   time.Now(),
	}
	return &testServer{
		app:         app,
		router:      httptransport.NewRouter(app),
		generator:   generator,
		synthesizer: synthesizer,
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, name, email, password string) {
	t.Helper()
	rec := s.do(http.MethodPost, "/signup", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) countRows(t *testing.T, table any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.app.DB.Model(table).Count(&n).Error)
	return n
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestSignup(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/signup", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "pw"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Signup successful! Please login.", decode(t, rec)["message"])

	rec = s.do(http.MethodPost, "/signup", map[string]string{"name": "Eve", "email": "ada@example.com", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists!", decode(t, rec)["message"])
	assert.EqualValues(t, 1, s.countRows(t, &model.User{}))
}

func TestSignupMissingFields(t *testing.T) {
	s := newTestServer(t)

	bodies := []any{
		map[string]string{"email": "a@example.com", "password": "pw"},
		map[string]string{"name": "Ada", "password": "pw"},
		map[string]string{"name": "Ada", "email": "a@example.com", "password": ""},
		"{not json",
		nil,
	}
	for _, body := range bodies {
		rec := s.do(http.MethodPost, "/signup", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "All fields are required!", decode(t, rec)["message"])
	}
	assert.Zero(t, s.countRows(t, &model.User{}))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@example.com", "correct horse")

	rec := s.do(http.MethodPost, "/login", map[string]string{"email": "ada@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Login successful!", body["message"])
	assert.Equal(t, "/chat", body["redirect_url"])
	assert.Empty(t, rec.Result().Cookies())

	for _, creds := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong"},
		{"email": "ghost@example.com", "password": "correct horse"},
	} {
		rec := s.do(http.MethodPost, "/login", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials!", decode(t, rec)["message"])
	}
	assert.EqualValues(t, 1, s.countRows(t, &model.User{}))
}

func TestChatValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/chat", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Text input and email are required!", decode(t, rec)["message"])

	rec = s.do(http.MethodPost, "/chat", map[string]string{"text": "hi", "email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found!", decode(t, rec)["message"])
}

func TestChatLastResponseWithoutHistory(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@example.com", "pw")

	rec := s.do(http.MethodPost, "/chat", map[string]string{"text": "Read my Last Response", "email": "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "No previous responses found.", body["ai_response"])
	assert.NotContains(t, body, "audio_url")
	assert.Zero(t, s.countRows(t, &model.SearchHistory{}))
}

func TestChatRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@example.com", "pw")

	rec := s.do(http.MethodPost, "/chat", map[string]string{"text": "hello there", "email": "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "echo: hello there", body["ai_response"])
	assert.Equal(t, "/audio/response.mp3", body["audio_url"])
	assert.EqualValues(t, 1, s.countRows(t, &model.SearchHistory{}))

	audio := s.do(http.MethodGet, body["audio_url"].(string), nil)
	require.Equal(t, http.StatusOK, audio.Code)
	assert.Equal(t, "audio/mp3", audio.Header().Get("Content-Type"))
	assert.Equal(t, "mp3:echo: hello there", audio.Body.String())

	rec = s.do(http.MethodPost, "/chat", map[string]string{"text": "what was the LAST RESPONSE?", "email": "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Your last response was: echo: hello there", body["ai_response"])
	assert.NotContains(t, body, "audio_url")
	assert.EqualValues(t, 1, s.countRows(t, &model.SearchHistory{}))
}

func TestChatGeneratorFailureIsInternalError(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@example.com", "pw")
	s.generator.err = errors.New("upstream 503")

	rec := s.do(http.MethodPost, "/chat", map[string]string{"text": "hello", "email": "ada@example.com"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec)["message"])
	assert.NotContains(t, rec.Body.String(), "upstream")
	assert.Zero(t, s.countRows(t, &model.SearchHistory{}))
}

func TestAudioNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/audio/response.mp3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Audio file not found!", decode(t, rec)["message"])

	rec = s.do(http.MethodGet, "/audio/..", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConcurrentChatsShareAudio(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@example.com", "pw")
	s.signup(t, "Bob", "bob@example.com", "pw")

	release := make(chan struct{})
	s.synthesizer.gates["echo: from ada"] = release

	adaDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		adaDone <- s.do(http.MethodPost, "/chat", map[string]string{"text": "from ada", "email": "ada@example.com"})
	}()
	<-s.synthesizer.entered

	bob := s.do(http.MethodPost, "/chat", map[string]string{"text": "from bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusOK, bob.Code)
	close(release)
	ada := <-adaDone
	require.Equal(t, http.StatusOK, ada.Code)

	adaBody, bobBody := decode(t, ada), decode(t, bob)
	assert.Equal(t, "/audio/response.mp3", adaBody["audio_url"])
	assert.Equal(t, adaBody["audio_url"], bobBody["audio_url"])
	assert.EqualValues(t, 2, s.countRows(t, &model.SearchHistory{}))

	// ada's write landed last, so both users now get her audio
	audio := s.do(http.MethodGet, "/audio/response.mp3", nil)
	require.Equal(t, http.StatusOK, audio.Code)
	assert.Equal(t, "mp3:echo: from ada", audio.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, true, deps["database"].(map[string]any)["ok"])
	assert.Equal(t, false, deps["redis"].(map[string]any)["enabled"])
	assert.Equal(t, false, deps["rabbitmq"].(map[string]any)["enabled"])
}

func TestHandlerAddsCORSAndRequestID(t *testing.T) {
	s := newTestServer(t)
	h := httptransport.NewHandler(s.app)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
