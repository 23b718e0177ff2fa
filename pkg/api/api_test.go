package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/storage"
	"github.com/mchmarny/menued/pkg/store"
)

const sampleSeed = `{
	"Applications": {"Calendar": "app", "Chrome": "app"},
	"Documents": {"Reports": {"Q1": "doc"}, "Notes": "doc"}
}`

func newTestServer(t *testing.T, opts ...editor.Option) (*httptest.Server, *store.Store) {
	t.Helper()
	s := store.New(storage.NewMemory(), store.WithSeed(sampleSeed))
	require.NoError(t, s.Initialize(context.Background()))

	ed := editor.New(s, opts...)
	session := editor.NewSession(ed)
	a := New(ed, session)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(a.Close)
	t.Cleanup(session.Close)
	return srv, s
}

func do(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestGetMenu(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := do(t, http.MethodGet, srv.URL+"/api/menu", nil)
	require.Equal(t, http.StatusOK, code)

	f, err := menu.Parse(body)
	require.NoError(t, err)
	require.Len(t, f, 2)
	assert.Equal(t, "Applications", f[0].Name)
	assert.Equal(t, 7, f.Count())
}

func TestGetFlatAndVisible(t *testing.T) {
	srv, _ := newTestServer(t)

	var rows []menu.FlatNode
	code, body := do(t, http.MethodGet, srv.URL+"/api/menu/flat", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &rows))
	assert.Len(t, rows, 7)

	code, body = do(t, http.MethodGet, srv.URL+"/api/menu/visible?expanded=0/0", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "0/0/1", rows[2].ID)

	code, body = do(t, http.MethodGet, srv.URL+"/api/menu/visible", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &rows))
	assert.Len(t, rows, 2)
}

func TestAddNode(t *testing.T) {
	srv, s := newTestServer(t)

	code, body := do(t, http.MethodPost, srv.URL+"/api/nodes", menu.FormValues{
		Name: "Website", Link: "https://example.com", HasChildren: true,
	})
	require.Equal(t, http.StatusCreated, code)

	var n menu.Node
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, "0/2", n.ID)
	assert.True(t, n.IsContainer())
	assert.Len(t, s.Current(), 3)
}

func TestAddNodeInvalid(t *testing.T) {
	srv, s := newTestServer(t)

	code, body := do(t, http.MethodPost, srv.URL+"/api/nodes", menu.FormValues{Name: "abc", Link: "https://example.com"})
	require.Equal(t, http.StatusBadRequest, code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "must be at least 6 characters", resp.Fields["name"])
	assert.NotContains(t, resp.Fields, "link")
	assert.Len(t, s.Current(), 2)

	code, _ = do(t, http.MethodPost, srv.URL+"/api/nodes", "not an object")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEditAndDeleteNode(t *testing.T) {
	srv, s := newTestServer(t)

	code, body := do(t, http.MethodPut, srv.URL+"/api/nodes/0/1/0/0", menu.FormValues{
		Name: "Quarter 1", Link: "https://example.com/q1",
	})
	require.Equal(t, http.StatusOK, code)
	var n menu.Node
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, "Quarter 1", n.Name)
	assert.Equal(t, "https://example.com/q1", s.Current().Find("0/1/0/0").Link)

	code, _ = do(t, http.MethodDelete, srv.URL+"/api/nodes/0/1", nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, 3, s.Current().Count())

	code, _ = do(t, http.MethodDelete, srv.URL+"/api/nodes/0/1", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, http.MethodPut, srv.URL+"/api/nodes/9/9", menu.FormValues{
		Name: "Missing", Link: "https://example.com",
	})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMove(t *testing.T) {
	srv, s := newTestServer(t)

	code, body := do(t, http.MethodPost, srv.URL+"/api/move", editor.DropEvent{
		NodeID: "0/0/1", CurrentIndex: 1, IsPointerOverContainer: true, Expanded: []string{"0/0"},
	})
	require.Equal(t, http.StatusOK, code)

	var res editor.MoveResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, editor.MoveResult{Moved: true, NodeID: "0/0/1", DestID: "0/0/0"}, res)
	assert.Equal(t, "Chrome", s.Current()[0].Children[0].Name)

	code, _ = do(t, http.MethodPost, srv.URL+"/api/move", editor.DropEvent{
		NodeID: "0/0/1", CurrentIndex: 42, IsPointerOverContainer: true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMoveCrossLevelRejected(t *testing.T) {
	srv, s := newTestServer(t, editor.WithSameLevelValidation(true))

	code, body := do(t, http.MethodPost, srv.URL+"/api/move", editor.DropEvent{
		NodeID: "0/0/0", CurrentIndex: 3, IsPointerOverContainer: true, Expanded: []string{"0/0"},
	})
	require.Equal(t, http.StatusConflict, code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "Items can only be moved within the same level.", resp.Error)
	assert.Len(t, s.Current()[0].Children, 2)
}

func TestSessionRoutes(t *testing.T) {
	srv, s := newTestServer(t)

	var state editor.SessionState
	code, body := do(t, http.MethodPost, srv.URL+"/api/session/expand/0/1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, []string{"0/1"}, state.Expanded)

	var rows []menu.FlatNode
	_, body = do(t, http.MethodGet, srv.URL+"/api/menu/visible", nil)
	require.NoError(t, json.Unmarshal(body, &rows))
	assert.Len(t, rows, 4)

	var form menu.FormValues
	code, body = do(t, http.MethodPost, srv.URL+"/api/session/edit/0/1/1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &form))
	assert.Equal(t, "Notes", form.Name)

	_, body = do(t, http.MethodGet, srv.URL+"/api/session", nil)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, editor.ModeEdit, state.Mode)
	assert.Equal(t, "0/1/1", state.TargetID)

	code, _ = do(t, http.MethodPost, srv.URL+"/api/session/submit", menu.FormValues{
		Name: "Meeting notes", Link: "https://example.com/notes",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Meeting notes", s.Current().Find("0/1/1").Name)

	_, body = do(t, http.MethodGet, srv.URL+"/api/session", nil)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, editor.ModeAdd, state.Mode)

	code, body = do(t, http.MethodPost, srv.URL+"/api/session/collapse/0/1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Empty(t, state.Expanded)

	code, body = do(t, http.MethodPost, srv.URL+"/api/session/toggle/0/0", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, []string{"0/0"}, state.Expanded)

	code, _ = do(t, http.MethodPost, srv.URL+"/api/session/expand/7/7", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReset(t *testing.T) {
	srv, s := newTestServer(t)

	code, _ := do(t, http.MethodDelete, srv.URL+"/api/nodes/0/0", nil)
	require.Equal(t, http.StatusNoContent, code)
	require.Len(t, s.Current(), 1)

	code, _ = do(t, http.MethodPost, srv.URL+"/api/reset", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, s.Current(), 2)
}

func TestWatch(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() menu.Forest {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, b, err := conn.ReadMessage()
		require.NoError(t, err)
		f, err := menu.Parse(b)
		require.NoError(t, err)
		return f
	}

	assert.Len(t, read(), 2)

	code, _ := do(t, http.MethodPost, srv.URL+"/api/nodes", menu.FormValues{Name: "Website", Link: "https://example.com"})
	require.Equal(t, http.StatusCreated, code)

	f := read()
	require.Len(t, f, 3)
	assert.Equal(t, "Website", f[2].Name)
}

func TestWatchClose(t *testing.T) {
	s := store.New(storage.NewMemory(), store.WithSeed(sampleSeed))
	require.NoError(t, s.Initialize(context.Background()))
	hub := NewHub(s)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		hub.Close()
		close(closed)
	}()

	// the watcher is told to go away and Close waits for it
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not close")
	}

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	hub.Close()
}

type brokenKV struct{ storage.KV }

func (brokenKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestStorageProbe(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	assert.NoError(t, StorageProbe{KV: kv, Key: store.DefaultKey}.Ready(ctx))

	require.NoError(t, kv.Set(ctx, store.DefaultKey, []byte("[]")))
	assert.NoError(t, StorageProbe{KV: kv, Key: store.DefaultKey}.Ready(ctx))

	err := StorageProbe{KV: brokenKV{}, Key: store.DefaultKey}.Ready(ctx)
	assert.ErrorContains(t, err, "connection refused")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(menu.ErrNodeNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(menu.ErrMoveIntoDescendant))
	assert.Equal(t, http.StatusBadRequest, statusFor(&menu.ValidationError{}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk full")))
}
