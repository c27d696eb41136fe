package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("lang=" + r.Header.Get("Accept-Language") + " ua=" + r.Header.Get("User-Agent")))
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login?next=/hop", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("login"))
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("blocked"))
	})
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("remember_me_token")
		if err != nil {
			_, _ = w.Write([]byte("none"))
			return
		}
		_, _ = w.Write([]byte(c.Value))
	})
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "remember_me_token", Value: "from-server", Path: "/"})
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/br", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte("<html>压缩内容</html>"))
		_ = bw.Close()
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetSetsLanguageAndBrowserUA(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Options{})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL+"/plain", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.False(t, resp.Redirected)
	require.Contains(t, string(resp.Body), "lang="+DefaultAcceptLanguage)
	require.Contains(t, string(resp.Body), "Mozilla/5.0")
	require.NotContains(t, string(resp.Body), "go-resty")
}

func TestClient_GetReportsRedirectAndFinalURL(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Options{})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL+"/hop", nil)
	require.NoError(t, err)
	require.True(t, resp.Redirected)
	require.Equal(t, srv.URL+"/login?next=/hop", resp.URL)
	require.Equal(t, "login", string(resp.Body))
}

func TestClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Options{})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL+"/forbidden", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "blocked", string(resp.Body))
}

func TestClient_PerRequestCookiesAndResetSession(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Options{})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL+"/cookie", []*http.Cookie{{Name: "remember_me_token", Value: "abc"}})
	require.NoError(t, err)
	require.Equal(t, "abc", string(resp.Body))

	// 服务端写入的会话 Cookie 会留在 jar 中，直到 ResetSession。
	_, err = c.Get(context.Background(), srv.URL+"/set", nil)
	require.NoError(t, err)
	resp, err = c.Get(context.Background(), srv.URL+"/cookie", nil)
	require.NoError(t, err)
	require.Equal(t, "from-server", string(resp.Body))

	require.NoError(t, c.ResetSession())
	resp, err = c.Get(context.Background(), srv.URL+"/cookie", nil)
	require.NoError(t, err)
	require.Equal(t, "none", string(resp.Body))
}

func TestClient_DecodesBrotliBody(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(Options{})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL+"/br", nil)
	require.NoError(t, err)
	require.Equal(t, "<html>压缩内容</html>", string(resp.Body))
}

func TestNewClient_InvalidProxyURL(t *testing.T) {
	_, err := NewClient(Options{ProxyURL: "http://[::1"})
	require.Error(t, err)

	_, err = NewClient(Options{ProxyURL: "127.0.0.1"})
	require.Error(t, err)
}
