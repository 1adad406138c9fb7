package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"glyde/internal/db"
	"glyde/internal/middleware"
	"glyde/internal/models"
	"glyde/internal/router"
	"glyde/internal/services"
	"glyde/internal/utils"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	svc    *services.Services
	clock  *utils.StubClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "glyde.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := utils.NewStubClock()
	svc := services.New(gdb, services.Options{
		Clock:      clock,
		UploadDir:  filepath.Join(t.TempDir(), "uploads"),
		LoginDelay: 5 * time.Second,
	})

	r := gin.New()
	r.Use(sessions.Sessions("glyde_session", cookie.NewStore([]byte("test-secret"))))
	renderer, err := router.LoadTemplates("../../web/templates")
	require.NoError(t, err)
	r.HTMLRender = renderer

	router.RegisterRoutes(r, router.Deps{
		Services: svc,
		Tokens:   middleware.NewTokenIssuer("jwt-secret", time.Hour),
		DB:       gdb,
		PageSize: 5,
	})
	return &testServer{engine: r, db: gdb, svc: svc, clock: clock}
}

func (s *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) form(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, cookies...)
}

func (s *testServer) json(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

// login signs a fresh user up through the HTML forms and returns the session cookies.
func (s *testServer) login(t *testing.T) (string, []*http.Cookie) {
	t.Helper()
	username, email, password := gofakeit.Username(), gofakeit.Email(), "hunter22"

	w := s.form("/signup", url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Registration successful")

	w = s.form("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return username, cookies
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]string
	decode(t, w, &stats)
	require.Equal(t, "up", stats["status"])
}

func TestHomeEmpty(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/?page=-3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "No posts yet.")
	require.Contains(t, w.Body.String(), "Page 1 of 1")
}

func TestSignupPasswordMismatch(t *testing.T) {
	s := newTestServer(t)
	w := s.form("/signup", url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"one"},
		"confirm_password": {"two"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Passwords do not match.")
}

func TestSignupDuplicate(t *testing.T) {
	s := newTestServer(t)
	values := url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"pw"},
		"confirm_password": {"pw"},
	}
	require.Equal(t, http.StatusOK, s.form("/signup", values).Code)

	w := s.form("/signup", values)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "Username or email already exists.")
}

func TestSubmitRequiresLogin(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/submit", nil))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	w = s.form("/p/1/upvote", url.Values{})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLoginThrottle(t *testing.T) {
	s := newTestServer(t)
	_, err := s.svc.Accounts.Register(t.Context(), "bob", "bob@example.com", "right")
	require.NoError(t, err)

	w := s.form("/login", url.Values{"email": {"bob@example.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password.")

	// even the right password is refused during the cooldown
	w = s.form("/login", url.Values{"email": {"bob@example.com"}, "password": {"right"}})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "Please wait for 5 seconds")

	s.clock.Advance(6 * time.Second)
	w = s.form("/login", url.Values{"email": {"bob@example.com"}, "password": {"right"}})
	require.Equal(t, http.StatusFound, w.Code)
}

func TestPostVoteCommentFlow(t *testing.T) {
	s := newTestServer(t)
	username, cookies := s.login(t)

	w := s.form("/submit", url.Values{"title": {"First post"}, "content": {"**hello** world"}}, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Post created successfully!")

	w = s.form("/p/1/upvote", url.Values{"page": {"1"}}, cookies...)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/?page=1#post-1", w.Header().Get("Location"))

	// a repeated upvote is accepted but not counted
	w = s.form("/p/1/upvote", url.Values{"page": {"1"}}, cookies...)
	require.Equal(t, http.StatusFound, w.Code)

	w = s.form("/p/1/comment", url.Values{"comment": {"nice one"}, "page": {"1"}}, cookies...)
	require.Equal(t, http.StatusFound, w.Code)

	post, err := s.svc.Posts.Get(t.Context(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, post.UpvoteCount)
	require.Equal(t, 0, post.DownvoteCount)

	w = s.do(httptest.NewRequest(http.MethodGet, "/", nil), cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "First post")
	require.Contains(t, body, "<strong>hello</strong>")
	require.Contains(t, body, "nice one")
	require.Contains(t, body, username)
}

func TestVoteUnknownPost(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.login(t)

	w := s.form("/p/42/downvote", url.Values{}, cookies...)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Post not found.")
}

func TestHomePagination(t *testing.T) {
	s := newTestServer(t)
	for i := 1; i <= 7; i++ {
		s.clock.Advance(time.Minute)
		_, err := s.svc.Posts.Create(t.Context(), services.NewPost{
			Author:     "alice",
			Title:      fmt.Sprintf("post number %d", i),
			Visibility: models.VisibilityPublic,
		})
		require.NoError(t, err)
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	body := w.Body.String()
	require.Contains(t, body, "post number 7")
	require.NotContains(t, body, "post number 2")
	require.Contains(t, body, "Page 1 of 2")

	w = s.do(httptest.NewRequest(http.MethodGet, "/?page=2", nil))
	body = w.Body.String()
	require.Contains(t, body, "post number 2")
	require.Contains(t, body, "post number 1")
	require.NotContains(t, body, "post number 3")
}

func TestAPIFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.json(http.MethodPost, "/api/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotContains(t, w.Body.String(), "password_hash")

	w = s.json(http.MethodPost, "/api/login", "", map[string]string{
		"email": "carol@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	w = s.json(http.MethodGet, "/api/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "carol")

	w = s.json(http.MethodPost, "/api/posts", login.Token, map[string]string{
		"title": "api post", "content": "from json",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)
	require.NotZero(t, created.ID)

	path := fmt.Sprintf("/api/posts/%d", created.ID)
	for _, want := range []bool{true, false} {
		w = s.json(http.MethodPost, path+"/upvote", login.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var vote struct {
			Counted     bool `json:"counted"`
			UpvoteCount int  `json:"upvote_count"`
		}
		decode(t, w, &vote)
		require.Equal(t, want, vote.Counted)
		require.Equal(t, 1, vote.UpvoteCount)
	}

	w = s.json(http.MethodPost, path+"/comments", login.Token, map[string]string{"text": "first!"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.json(http.MethodGet, path+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []struct {
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	decode(t, w, &comments)
	require.Len(t, comments, 1)
	require.Equal(t, "carol", comments[0].Author)
	require.Equal(t, "first!", comments[0].Text)

	w = s.json(http.MethodGet, "/api/posts?page=1&size=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Posts []struct {
			Title       string `json:"title"`
			UpvoteCount int    `json:"upvote_count"`
		} `json:"posts"`
	}
	decode(t, w, &list)
	require.Len(t, list.Posts, 1)
	require.Equal(t, "api post", list.Posts[0].Title)
	require.Equal(t, 1, list.Posts[0].UpvoteCount)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.json(http.MethodPost, "/api/posts", "", map[string]string{"title": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodPost, "/api/posts/1/upvote", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.json(http.MethodGet, "/api/posts/99", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.json(http.MethodPost, "/api/login", "", map[string]string{"email": "nobody@example.com", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodPost, "/api/login", "", map[string]string{"email": "nobody@example.com", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	_, err := s.svc.Accounts.Register(t.Context(), "dave", "dave@example.com", "pw")
	require.NoError(t, err)
	s.clock.Advance(10 * time.Second)
	w = s.json(http.MethodPost, "/api/login", "", map[string]string{"email": "dave@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	w = s.json(http.MethodPost, "/api/posts", login.Token, map[string]string{
		"title": "bad media", "media_reference": "uploads/x.exe",
	})
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func (s *testServer) upload(t *testing.T, filename string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "with video"))
	require.NoError(t, mw.WriteField("content", "watch this"))
	fw, err := mw.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("not really a video"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, cookies...)
}

func TestSubmitWithVideo(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.login(t)

	w := s.upload(t, "clip.mp4", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Post created successfully!")

	post, err := s.svc.Posts.Get(t.Context(), 1)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(post.MediaReference, "uploads/"))
	require.True(t, strings.HasSuffix(post.MediaReference, "_clip.mp4"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/"+post.MediaReference, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "not really a video", w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, w.Body.String(), `src="/`+post.MediaReference+`"`)
}

func TestSubmitRejectsOtherMedia(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.login(t)

	w := s.upload(t, "evil.exe", cookies)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	require.Contains(t, w.Body.String(), "Only mp4, avi and mov videos can be uploaded.")

	total, err := s.svc.Posts.Count(t.Context(), models.VisibilityPublic)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestHomeShowsLegacyCommentsVerbatim(t *testing.T) {
	s := newTestServer(t)
	post, err := s.svc.Posts.Create(t.Context(), services.NewPost{
		Author:     "alice",
		Title:      "old post",
		Visibility: models.VisibilityPublic,
	})
	require.NoError(t, err)
	require.NoError(t, s.db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("comments", datatypes.JSON(`['no separator here', 'bob: hi']`)).Error)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "<p>no separator here</p>")
	require.NotContains(t, body, ": no separator here")
	require.Contains(t, body, "<strong>bob</strong>: hi")
}

func TestSubmitBrokenUpload(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.login(t)

	// multipart body cut off before the closing boundary
	body := "--XBOUNDARY\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n\r\n" +
		"lost video\r\n" +
		"--XBOUNDARY\r\n" +
		"Content-Disposition: form-data; name=\"video\"; filename=\"clip.mp4\"\r\n" +
		"Content-Type: video/mp4\r\n\r\n" +
		"partial bytes"
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=XBOUNDARY")

	w := s.do(req, cookies...)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Could not read the uploaded video")
	require.NotContains(t, w.Body.String(), "Post created successfully!")

	total, err := s.svc.Posts.Count(t.Context(), models.VisibilityPublic)
	require.NoError(t, err)
	require.Zero(t, total)
}
