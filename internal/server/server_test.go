package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetforge/internal/config"
	forgeerrors "github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/testutils"
	"github.com/conneroisu/assetforge/internal/watcher"
)

func newTestServer(t *testing.T, files map[string]string) (*DevServer, *httptest.Server) {
	t.Helper()

	cfg := config.Default()
	cfg.BuildDir = t.TempDir()
	cfg.Server.Open = false
	cfg.Server.Port = 0
	testutils.WriteFiles(t, cfg.BuildDir, files)

	srv := New(testutils.NewEnv(t, cfg))

	ctx, cancel := context.WithCancel(context.Background())
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return srv, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func dial(t *testing.T, srv *DevServer, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + routeWS
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{ts.URL}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) UpdateMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestInjectScript(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "before body end",
			doc:  "<html><body><p>hi</p></body></html>",
			want: "<html><body><p>hi</p>[S]</body></html>",
		},
		{
			name: "upper case tag",
			doc:  "<HTML><BODY>x</BODY></HTML>",
			want: "<HTML><BODY>x[S]</BODY></HTML>",
		},
		{
			name: "ignores body inside comments and scripts",
			doc:  "<body><!-- </body> --><script>var s = '</body>';</script></body>",
			want: "<body><!-- </body> --><script>var s = '</body>';</script>[S]</body>",
		},
		{
			name: "no body end",
			doc:  "<p>fragment</p>",
			want: "<p>fragment</p>[S]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(InjectScript([]byte(tt.doc), "[S]")))
		})
	}
}

func TestStaticInjectsReloadClient(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.html":        "<html><body><h1>Home</h1></body></html>",
		"about/index.html":  "<html><body>About</body></html>",
		"assets/main.css":   "body{color:red}",
		"assets/bundle.js":  "console.log(1)",
		"assets/bundle.txt": "</body>",
	})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>Home</h1>")
	assert.Contains(t, body, routeWS)
	assert.True(t, strings.HasSuffix(body, "</script>\n</body></html>"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	_, body = get(t, ts.URL+"/about/")
	assert.Contains(t, body, routeWS)

	_, body = get(t, ts.URL+"/index.html")
	assert.Contains(t, body, routeWS)

	_, body = get(t, ts.URL+"/assets/main.css")
	assert.Equal(t, "body{color:red}", body)

	_, body = get(t, ts.URL+"/assets/bundle.txt")
	assert.Equal(t, "</body>", body)

	resp, _ = get(t, ts.URL+"/missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSHeaders(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"a.css": "a{}"})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/a.css", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+routeHealth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 0, health["clients"])

	srv.env.Cache.Fresh("build/index.html", 1)
	srv.env.Cache.Store("build/index.html", 1)
	_, body = get(t, ts.URL+routeHealth)
	health = nil
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, map[string]interface{}{"entries": 1.0, "hits": 0.0, "misses": 1.0}, health["cache"])

	srv.env.Errors.Add(forgeerrors.BuildError{Task: "styles", File: "src/styles/main.scss", Message: "boom"})
	_, body = get(t, ts.URL+routeHealth)
	assert.Contains(t, body, `"status":"build_error"`)

	_, body = get(t, ts.URL+routeErrors)
	assert.Contains(t, body, "boom")

	resp, body = get(t, ts.URL+routeMetrics)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "assetforge_reload_clients")
}

func TestCheckOrigin(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	srv.cfg.Server.Host = "localhost"
	srv.cfg.Server.Port = 3000
	srv.cfg.Server.AllowedOrigins = []string{"https://preview.example.test"}

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"configured host", "http://localhost:3000", "", true},
		{"loopback alias", "http://127.0.0.1:3000", "", true},
		{"same host as request", "http://192.168.1.20:3000", "192.168.1.20:3000", true},
		{"allowed origin", "https://preview.example.test", "", true},
		{"external origin", "http://malicious.test", "localhost:3000", false},
		{"wrong port", "http://localhost:9999", "localhost:3000", false},
		{"file scheme", "file:///etc/passwd", "", false},
		{"empty origin", "", "", false},
		{"malformed", "not-a-url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header), Host: tt.host}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, srv.checkOrigin(req))
		})
	}
}

func TestHubBroadcastsNotifierEvents(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dial(t, srv, ts)

	require.Eventually(t, func() bool { return srv.hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	var n pipeline.Notifier = srv.Hub()
	n.CSSUpdate("/assets/main.css")
	n.BuildError("SCSS", "Error: expected \"}\"")
	n.BuildOK()
	n.Reload()

	msg := readMessage(t, conn)
	assert.Equal(t, MsgCSSUpdate, msg.Type)
	assert.Equal(t, "/assets/main.css", msg.Path)

	msg = readMessage(t, conn)
	assert.Equal(t, MsgBuildError, msg.Type)
	assert.Equal(t, "SCSS", msg.Title)
	assert.Equal(t, "Error: expected \"}\"", msg.Message)

	assert.Equal(t, MsgBuildOK, readMessage(t, conn).Type)
	assert.Equal(t, MsgFullReload, readMessage(t, conn).Type)
}

func TestHubReplaysPendingErrorToNewClients(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	srv.Hub().BuildError("JS", "Error: unexpected token")

	conn := dial(t, srv, ts)
	msg := readMessage(t, conn)
	assert.Equal(t, MsgBuildError, msg.Type)
	assert.Equal(t, "JS", msg.Title)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + routeWS
	_, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://malicious.test"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeTaskRunsUntilCancelled(t *testing.T) {
	testutils.TempWorkDir(t)

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.Open = false
	env := testutils.NewEnv(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	task := Task(func(*config.Config) []watcher.Binding { return nil })
	go func() { done <- task.Run(ctx, env) }()

	require.Eventually(t, env.Intercepting, 5*time.Second, 10*time.Millisecond)
	_, isHub := env.Notifier().(*Hub)
	assert.True(t, isHub)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.False(t, env.Intercepting())
}
