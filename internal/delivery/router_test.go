package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/domain"
	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/Vovarama1992/nexcast/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ctxHeader = "X-Request-Context"

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSessions struct {
	subject string
	endErr  error
	endedID int64
}

func (f *fakeSessions) Start(_ context.Context, subject string) (*models.Session, error) {
	f.subject = subject
	if subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return &models.Session{ID: 1, UserID: 7, StartedAt: t0, Status: models.SessionActive}, nil
}

func (f *fakeSessions) End(_ context.Context, sessionID int64, subject string) (*models.Session, error) {
	f.subject = subject
	f.endedID = sessionID
	if f.endErr != nil {
		return nil, f.endErr
	}
	ended := t0.Add(time.Minute)
	return &models.Session{ID: sessionID, UserID: 7, StartedAt: t0, EndedAt: &ended, Status: models.SessionEnded}, nil
}

func (f *fakeSessions) Get(_ context.Context, sessionID int64, _ string) (*models.Session, error) {
	return &models.Session{ID: sessionID, UserID: 7, StartedAt: t0, Status: models.SessionActive}, nil
}

type fakeFrames struct {
	sessionID int64
	data      string
	err       error
}

func (f *fakeFrames) Ingest(_ context.Context, sessionID int64, frameData string) (*models.FrameUpload, error) {
	f.sessionID = sessionID
	f.data = frameData
	if f.err != nil {
		return nil, f.err
	}
	return &models.FrameUpload{ID: 10, SessionID: sessionID, ObjectKey: "frames/1/20250301_120000_000000.jpg", CreatedAt: t0}, nil
}

func (f *fakeFrames) IngestBytes(ctx context.Context, sessionID int64, raw []byte) (*models.FrameUpload, error) {
	return f.Ingest(ctx, sessionID, string(raw))
}

type fakeHistory struct {
	subject      string
	sessions     []models.SessionSummary
	commentaries []models.Commentary
	err          error
}

func (f *fakeHistory) ListSessions(_ context.Context, subject string) ([]models.SessionSummary, error) {
	f.subject = subject
	if subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return f.sessions, f.err
}

func (f *fakeHistory) SessionHistory(_ context.Context, _ int64, subject string) ([]models.Commentary, error) {
	f.subject = subject
	if f.err != nil {
		return nil, f.err
	}
	return f.commentaries, nil
}

type fakeAuth struct {
	err error
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*ports.AuthTokens, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.AuthTokens{AccessToken: "a", IDToken: "i", RefreshToken: "r"}, nil
}

func (f *fakeAuth) Register(_ context.Context, _, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "sub-new", nil
}

type fakeStreams struct {
	closed []int64
}

func (f *fakeStreams) CloseSession(id int64) { f.closed = append(f.closed, id) }

type fixture struct {
	sessions *fakeSessions
	frames   *fakeFrames
	history  *fakeHistory
	auth     *fakeAuth
	streams  *fakeStreams
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	zl := logger.NewZapLogger(zap.NewNop().Sugar())
	f := &fixture{
		sessions: &fakeSessions{},
		frames:   &fakeFrames{},
		history:  &fakeHistory{},
		auth:     &fakeAuth{},
		streams:  &fakeStreams{},
	}
	f.router = NewRouter(Handlers{
		Auth:    NewAuthHandler(f.auth, zl),
		Session: NewSessionHandler(f.sessions, f.streams, zl),
		Frame:   NewFrameHandler(f.frames, zl),
		History: NewHistoryHandler(f.history, zl),
	}, IdentityMiddleware(domain.NewIdentityResolver(), ctxHeader))
	return f
}

func v2Context(sub string) string {
	return fmt.Sprintf(`{"authorizer":{"jwt":{"claims":{"sub":%q}}}}`, sub)
}

func v1Context(sub string) string {
	return fmt.Sprintf(`{"authorizer":{"claims":{"sub":%q}}}`, sub)
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestRouter_CORSOnEveryResponse(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodPost, "/session/start", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/session/start", http.StatusMethodNotAllowed},
		{http.MethodPost, "/auth/login", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec, body := f.do(t, tc.method, tc.path, `{}`, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotNil(t, body)
		})
	}

	rec, _ := f.do(t, http.MethodPost, "/session/start", "", map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartSession(t *testing.T) {
	t.Run("v2 header", func(t *testing.T) {
		f := newFixture(t)
		rec, body := f.do(t, http.MethodPost, "/session/start", "", map[string]string{ctxHeader: v2Context("sub-123")})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "sub-123", f.sessions.subject)
		assert.Equal(t, float64(1), body["session_id"])
		assert.Equal(t, "active", body["status"])
		assert.Nil(t, body["ended_at"])
	})

	t.Run("v1 header base64", func(t *testing.T) {
		f := newFixture(t)
		hdr := base64.StdEncoding.EncodeToString([]byte(v1Context("sub-legacy")))
		rec, _ := f.do(t, http.MethodPost, "/session/start", "", map[string]string{ctxHeader: hdr})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "sub-legacy", f.sessions.subject)
	})

	t.Run("no identity", func(t *testing.T) {
		f := newFixture(t)
		rec, body := f.do(t, http.MethodPost, "/session/start", "", map[string]string{ctxHeader: `{"authorizer":{}}`})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", body["error"])
		assert.Equal(t, "", f.sessions.subject)
	})
}

func TestIdentityMiddleware_RequestContextWins(t *testing.T) {
	var got string
	h := IdentityMiddleware(domain.NewIdentityResolver(), ctxHeader)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SubjectFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ctxHeader, v2Context("from-header"))
	req = req.WithContext(WithRequestContext(req.Context(), []byte(v1Context("from-gateway"))))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "from-gateway", got)
}

func TestIdentityMiddleware_HeaderDisabled(t *testing.T) {
	var got string
	h := IdentityMiddleware(domain.NewIdentityResolver(), "")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SubjectFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ctxHeader, v2Context("spoofed"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRequestContext(req.Context(), []byte(v2Context("from-gateway"))))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-gateway", got)
}

func TestIdentityMiddleware_GarbageHeader(t *testing.T) {
	got := "unset"
	h := IdentityMiddleware(domain.NewIdentityResolver(), ctxHeader)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SubjectFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ctxHeader, "%%%not-json%%%")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "", got)
}

func TestEndSession(t *testing.T) {
	auth := map[string]string{ctxHeader: v2Context("sub-123")}

	t.Run("numeric and string ids", func(t *testing.T) {
		for _, body := range []string{`{"session_id":42}`, `{"session_id":"42"}`} {
			f := newFixture(t)
			rec, out := f.do(t, http.MethodPost, "/session/end", body, auth)

			require.Equal(t, http.StatusOK, rec.Code, body)
			assert.Equal(t, int64(42), f.sessions.endedID)
			assert.Equal(t, "ended", out["status"])
			assert.NotNil(t, out["ended_at"])
			assert.Equal(t, []int64{42}, f.streams.closed)
		}
	})

	t.Run("status mapping", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			reason string
		}{
			{fmt.Errorf("%w: session_id is required", domain.ErrBadRequest), http.StatusBadRequest, "bad_request"},
			{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
			{fmt.Errorf("%w: session 999", domain.ErrNotFound), http.StatusNotFound, "not_found"},
			{fmt.Errorf("%w: session already ended", domain.ErrConflict), http.StatusConflict, "conflict"},
			{fmt.Errorf("%w: end session: conn reset", domain.ErrPersistence), http.StatusInternalServerError, "persistence_error"},
		}
		for _, tc := range cases {
			t.Run(tc.reason, func(t *testing.T) {
				f := newFixture(t)
				f.sessions.endErr = tc.err
				rec, out := f.do(t, http.MethodPost, "/session/end", `{"session_id":999}`, auth)

				assert.Equal(t, tc.status, rec.Code)
				assert.Equal(t, tc.reason, out["error"])
				assert.NotContains(t, out["message"], "conn reset")
				assert.Empty(t, f.streams.closed)
			})
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodPost, "/session/end", `{"session_id":`, auth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", out["error"])
	})

	t.Run("non numeric id", func(t *testing.T) {
		f := newFixture(t)
		rec, _ := f.do(t, http.MethodPost, "/session/end", `{"session_id":"abc"}`, auth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadFrame(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodPost, "/frame/upload", `{"session_id":"1","frame_data":"/9j/"}`, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, int64(1), f.frames.sessionID)
		assert.Equal(t, "/9j/", f.frames.data)
		assert.Equal(t, float64(10), out["frame_id"])
		assert.Equal(t, "frames/1/20250301_120000_000000.jpg", out["object_key"])
		assert.Equal(t, out["object_key"], out["s3_key"])
		assert.Equal(t, "uploaded", out["status"])
	})

	t.Run("storage failure hides cause", func(t *testing.T) {
		f := newFixture(t)
		f.frames.err = fmt.Errorf("%w: put object: AccessDenied secret-bucket", domain.ErrStorage)
		rec, out := f.do(t, http.MethodPost, "/frame/upload", `{"session_id":1,"frame_data":"/9j/"}`, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "storage_error", out["error"])
		assert.NotContains(t, out["message"], "secret-bucket")
	})
}

func TestHistory(t *testing.T) {
	auth := map[string]string{ctxHeader: v2Context("sub-123")}

	t.Run("empty list", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodGet, "/history/list", "", auth)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, out["sessions"])
		assert.Equal(t, "sub-123", f.history.subject)
	})

	t.Run("list with counts", func(t *testing.T) {
		f := newFixture(t)
		f.history.sessions = []models.SessionSummary{
			{Session: models.Session{ID: 2, UserID: 7, StartedAt: t0.Add(time.Hour), Status: models.SessionActive}},
			{Session: models.Session{ID: 1, UserID: 7, StartedAt: t0, Status: models.SessionActive}, CommentaryCount: 3},
		}
		_, out := f.do(t, http.MethodGet, "/history/list", "", auth)

		list := out["sessions"].([]any)
		require.Len(t, list, 2)
		assert.Equal(t, float64(2), list[0].(map[string]any)["session_id"])
		assert.Equal(t, float64(0), list[0].(map[string]any)["commentary_count"])
		assert.Equal(t, float64(3), list[1].(map[string]any)["commentary_count"])
	})

	t.Run("unauthenticated list", func(t *testing.T) {
		f := newFixture(t)
		rec, _ := f.do(t, http.MethodGet, "/history/list", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("session history", func(t *testing.T) {
		f := newFixture(t)
		f.history.commentaries = []models.Commentary{
			{ID: 1, SessionID: 5, CommentatorModel: "narrator", CommentaryText: "hello", CreatedAt: t0},
		}
		rec, out := f.do(t, http.MethodGet, "/history/5", "", auth)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(5), out["session_id"])
		list := out["commentaries"].([]any)
		require.Len(t, list, 1)
		assert.Equal(t, "hello", list[0].(map[string]any)["commentary_text"])
		assert.Nil(t, list[0].(map[string]any)["audio_url"])
	})

	t.Run("foreign session", func(t *testing.T) {
		f := newFixture(t)
		f.history.err = fmt.Errorf("%w: session 5", domain.ErrNotFound)
		rec, out := f.do(t, http.MethodGet, "/history/5", "", auth)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", out["error"])
	})

	t.Run("anonymous before id parsing", func(t *testing.T) {
		for _, path := range []string{"/history/5", "/history/99999999999999999999"} {
			f := newFixture(t)
			rec, out := f.do(t, http.MethodGet, path, "", nil)

			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
			assert.Equal(t, "unauthorized", out["error"])
		}
	})

	t.Run("overflowing id", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodGet, "/history/99999999999999999999", "", auth)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", out["error"])
	})

	t.Run("non numeric id", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodGet, "/history/abc", "", auth)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", out["error"])
		assert.Equal(t, "", f.history.subject)
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("login", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a", out["access_token"])
		assert.Equal(t, "i", out["id_token"])
		assert.Equal(t, "r", out["refresh_token"])
	})

	t.Run("login rejected", func(t *testing.T) {
		f := newFixture(t)
		f.auth.err = fmt.Errorf("%w: NotAuthorizedException", domain.ErrUpstreamAuth)
		rec, out := f.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"bad"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "upstream_auth_error", out["error"])
	})

	t.Run("register", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.do(t, http.MethodPost, "/auth/register", `{"username":"alice","password":"pw","email":"a@example.com"}`, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "sub-new", out["user_sub"])
		assert.NotEmpty(t, out["message"])
	})

	t.Run("register rejected", func(t *testing.T) {
		f := newFixture(t)
		f.auth.err = fmt.Errorf("%w: UsernameExistsException", domain.ErrUpstreamAuth)
		rec, out := f.do(t, http.MethodPost, "/auth/register", `{"username":"alice","password":"pw","email":"a@example.com"}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "upstream_auth_error", out["error"])
	})
}
