package router

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"socialnet/internal/config"
	"socialnet/internal/models"
	"socialnet/internal/services"
	"socialnet/internal/storage"
	"socialnet/internal/testutil"
)

type testApp struct {
	db     *gorm.DB
	server *httptest.Server
	media  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutil.NewDB(t)
	media := t.TempDir()
	cfg := &config.Config{
		SessionSecret:  "test-secret",
		SessionName:    "socialnet_test",
		MediaBackend:   "local",
		MediaLocalPath: media,
		MediaURLPrefix: "/media",
		MaxUploadMB:    1,
	}
	store, err := storage.NewLocalStorage(media, cfg.MediaURLPrefix)
	require.NoError(t, err)

	r, err := New(Deps{Config: cfg, DB: conn, Storage: store, Logger: zap.NewNop()})
	require.NoError(t, err)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &testApp{db: conn, server: server, media: media}
}

// client 每个用户一个独立的 cookie jar，不跟随重定向
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := services.NewUserService(a.db).Register(context.Background(), username, "password1")
	require.NoError(t, err)
	return user
}

// loggedIn 注册并登录，返回带会话的 client
func (a *testApp) loggedIn(t *testing.T, username string) (*http.Client, *models.User) {
	t.Helper()
	user := a.register(t, username)
	c := a.client(t)
	resp := a.post(t, c, "/accounts/login/", url.Values{"username": {username}, "password": {"password1"}}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return c, user
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (a *testApp) postMultipart(t *testing.T, c *http.Client, path, content, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("content", content))
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.Do(req)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func countRows(t *testing.T, conn *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestAnonymousFeed(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")
	testutil.CreatePost(t, app.db, alice, "hello from alice", time.Now().Add(-time.Hour))
	testutil.CreatePost(t, app.db, bob, "hello from bob", time.Now())

	resp, body := app.get(t, app.client(t), "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "hello from alice")
	assert.Contains(t, body, "hello from bob")
	assert.Less(t, strings.Index(body, "hello from bob"), strings.Index(body, "hello from alice"))
	assert.NotContains(t, body, `action="/post/create/"`)
}

func TestFeedPageParam(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		testutil.CreatePost(t, app.db, alice, "post-"+strconv.Itoa(i)+"-end", base.Add(time.Duration(i)*time.Minute))
	}

	for _, page := range []string{"2", "99"} {
		resp, body := app.get(t, app.client(t), "/?page="+page)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "post-0-end")
		assert.NotContains(t, body, "post-11-end")
		assert.Contains(t, body, "第 2 / 2 页")
	}

	_, body := app.get(t, app.client(t), "/?page=abc")
	assert.Contains(t, body, "post-11-end")
	assert.Contains(t, body, "第 1 / 2 页")
}

func TestAuthRequiredRedirects(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, _ := app.get(t, c, "/post/1/edit/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/accounts/login/?next=%2Fpost%2F1%2Fedit%2F", resp.Header.Get("Location"))

	resp = app.post(t, c, "/post/create/", url.Values{"content": {"sneaky"}}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/accounts/login/"))
	assert.Zero(t, countRows(t, app.db, &models.Post{}))
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")

	c := app.client(t)
	resp := app.post(t, c, "/accounts/login/", url.Values{"username": {"alice"}, "password": {"nope"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.post(t, c, "/accounts/login/", url.Values{
		"username": {"alice"}, "password": {"password1"}, "next": {"/user/alice/"},
	}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/user/alice/", resp.Header.Get("Location"))

	_, body := app.get(t, c, "/")
	assert.Contains(t, body, `action="/post/create/"`)

	c2 := app.client(t)
	resp = app.post(t, c2, "/accounts/login/", url.Values{
		"username": {"alice"}, "password": {"password1"}, "next": {"//evil.example/"},
	}, nil)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = app.post(t, c, "/accounts/logout/", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, c, "/")
	assert.NotContains(t, body, `action="/post/create/"`)
}

var captchaPattern = regexp.MustCompile(`验证码：(\d) ([+-]) (\d) =`)

func solveCaptcha(t *testing.T, body string) string {
	t.Helper()
	m := captchaPattern.FindStringSubmatch(body)
	require.NotNil(t, m, "captcha not found")
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	if m[2] == "-" {
		return strconv.Itoa(a - b)
	}
	return strconv.Itoa(a + b)
}

func TestSignup(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	_, body := app.get(t, c, "/accounts/signup/")
	answer := solveCaptcha(t, body)
	wrong := "99"
	if answer == wrong {
		wrong = "98"
	}
	resp := app.post(t, c, "/accounts/signup/", url.Values{
		"username": {"carol"}, "password": {"secret1"}, "captcha": {wrong},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, countRows(t, app.db, &models.User{}))

	_, body = app.get(t, c, "/accounts/signup/")
	resp = app.post(t, c, "/accounts/signup/", url.Values{
		"username": {"carol"}, "password": {"secret1"}, "captcha": {solveCaptcha(t, body)},
	}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, int64(1), countRows(t, app.db, &models.User{}))

	_, body = app.get(t, c, "/")
	assert.Contains(t, body, "注册成功")
	assert.Contains(t, body, "/user/carol/")
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	c, alice := app.loggedIn(t, "alice")

	resp := app.postMultipart(t, c, "/post/create/", "my **first** post", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := app.get(t, c, "/")
	assert.Contains(t, body, "帖子已发布")
	assert.Contains(t, body, "<strong>first</strong>")

	// 提示只显示一次
	_, body = app.get(t, c, "/")
	assert.NotContains(t, body, "帖子已发布")

	resp = app.postMultipart(t, c, "/post/create/", "", "cat.png", testutil.PNG)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var posts []models.Post
	require.NoError(t, app.db.Where("user_id = ?", alice.ID).Order("id").Find(&posts).Error)
	require.Len(t, posts, 2)
	assert.True(t, strings.HasPrefix(posts[1].Image, "/media/posts/"), posts[1].Image)

	resp, _ = app.get(t, c, posts[1].Image)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreatePostInvalid(t *testing.T) {
	app := newTestApp(t)
	c, _ := app.loggedIn(t, "alice")

	resp := app.postMultipart(t, c, "/post/create/", "   ", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = app.postMultipart(t, c, "/post/create/", "with exe", "run.exe", []byte("MZ"))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Zero(t, countRows(t, app.db, &models.Post{}))
}

func TestPostDetailAndComment(t *testing.T) {
	app := newTestApp(t)
	c, alice := app.loggedIn(t, "alice")
	post := testutil.CreatePost(t, app.db, alice, "discuss me", time.Now())
	path := "/post/" + strconv.Itoa(int(post.ID)) + "/"

	resp, body := app.get(t, app.client(t), path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "discuss me")
	assert.Contains(t, body, "登录</a>后参与评论")

	resp = app.post(t, c, path, url.Values{"content": {"  "}}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, path, resp.Header.Get("Location"))
	assert.Zero(t, countRows(t, app.db, &models.Comment{}))

	resp = app.post(t, c, path, url.Values{"content": {"nice one"}}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, path, resp.Header.Get("Location"))

	_, body = app.get(t, c, path)
	assert.Contains(t, body, "nice one")
	assert.Contains(t, body, "评论 (1)")
	assert.Contains(t, body, path+"edit/")

	resp = app.post(t, c, "/post/999/", url.Values{"content": {"lost"}}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.get(t, c, "/post/999/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = app.get(t, c, "/post/abc/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditAndDeleteByOwnerOnly(t *testing.T) {
	app := newTestApp(t)
	alice, aliceUser := app.loggedIn(t, "alice")
	mallory, _ := app.loggedIn(t, "mallory")
	post := testutil.CreatePost(t, app.db, aliceUser, "original", time.Now())
	base := "/post/" + strconv.Itoa(int(post.ID)) + "/"

	resp, _ := app.get(t, mallory, base+"edit/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = app.postMultipart(t, mallory, base+"edit/", "defaced", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = app.get(t, mallory, base+"delete/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = app.post(t, mallory, base+"delete/", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := app.get(t, alice, base+"edit/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "original")

	resp = app.postMultipart(t, alice, base+"edit/", "", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, base+"edit/", resp.Header.Get("Location"))

	resp = app.postMultipart(t, alice, base+"edit/", "revised", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, base, resp.Header.Get("Location"))

	var got models.Post
	require.NoError(t, app.db.First(&got, post.ID).Error)
	assert.Equal(t, "revised", got.Content)

	require.NoError(t, app.db.Create(&models.Comment{PostID: post.ID, UserID: aliceUser.ID, Content: "c"}).Error)
	require.NoError(t, app.db.Create(&models.Like{PostID: post.ID, UserID: aliceUser.ID}).Error)

	resp, body = app.get(t, alice, base+"delete/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "确认删除")

	resp = app.post(t, alice, base+"delete/", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Zero(t, countRows(t, app.db, &models.Post{}))
	assert.Zero(t, countRows(t, app.db, &models.Comment{}))
	assert.Zero(t, countRows(t, app.db, &models.Like{}))
}

func TestLikeRedirect(t *testing.T) {
	app := newTestApp(t)
	c, alice := app.loggedIn(t, "alice")
	post := testutil.CreatePost(t, app.db, alice, "like me", time.Now())
	path := "/post/" + strconv.Itoa(int(post.ID)) + "/like/"

	resp := app.post(t, c, path, nil, http.Header{"Referer": {app.server.URL + "/user/alice/?tab=1"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/user/alice/?tab=1", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countRows(t, app.db, &models.Like{}))

	resp = app.post(t, c, path, nil, http.Header{"Referer": {"https://evil.example/"}})
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Zero(t, countRows(t, app.db, &models.Like{}))

	resp, _ = app.get(t, c, path)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countRows(t, app.db, &models.Like{}))

	resp = app.post(t, c, "/post/999/like/", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowFlow(t *testing.T) {
	app := newTestApp(t)
	c, _ := app.loggedIn(t, "alice")
	bob := app.register(t, "bob")
	testutil.CreatePost(t, app.db, bob, "hello", time.Now())

	_, body := app.get(t, c, "/")
	assert.NotContains(t, body, "hello")

	resp := app.post(t, c, "/user/bob/follow/", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/user/bob/", resp.Header.Get("Location"))

	_, body = app.get(t, c, "/")
	assert.Contains(t, body, "hello")

	_, body = app.get(t, c, "/user/bob/")
	assert.Contains(t, body, "1 粉丝")
	assert.Contains(t, body, "取消关注")

	resp = app.post(t, c, "/user/bob/follow/", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	_, body = app.get(t, c, "/")
	assert.NotContains(t, body, "hello")

	resp = app.post(t, c, "/user/alice/follow/", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/user/alice/", resp.Header.Get("Location"))
	assert.Zero(t, countRows(t, app.db, &models.Follow{}))

	resp = app.post(t, c, "/user/nobody/follow/", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.get(t, app.client(t), "/user/nobody/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticAndNoRoute(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, body := app.get(t, c, "/static/css/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".card")

	resp, body = app.get(t, c, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "页面不存在")
}
