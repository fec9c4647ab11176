package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framecraft/framecraft/internal/usecase"
)

// watchService emits one update per selection, then holds the watch open
// until its context ends.
type watchService struct {
	fakeService

	started chan []string
	stopped chan []string
}

func newWatchService() *watchService {
	return &watchService{
		started: make(chan []string, 8),
		stopped: make(chan []string, 8),
	}
}

func (f *watchService) WatchAutoTag(ctx context.Context, ids []string, emit func(usecase.AutoTagUpdate) error) error {
	f.started <- ids
	if len(ids) == 0 {
		return nil
	}
	jobs := make([]usecase.AutoTagJob, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, usecase.AutoTagJob{AssetID: id, Status: usecase.AUTOTAG_STATUS_RUNNING})
	}
	if err := emit(usecase.AutoTagUpdate{Jobs: jobs, Summary: usecase.SummarizeAutoTag(ids, jobs)}); err != nil {
		return err
	}
	<-ctx.Done()
	f.stopped <- ids
	return nil
}

func recv(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case ids := <-ch:
		return ids
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return nil
	}
}

func dialStream(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.SetBasicAuth("admin", "secret")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/api/assets/auto-tag/stream"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": req.Header["Authorization"]},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func TestStreamAutoTag(t *testing.T) {
	svc := newWatchService()
	conn := dialStream(t, newTestServer(svc, "admin", "secret"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	send := func(ids []string) {
		require.NoError(t, wsjson.Write(ctx, conn, watchRequest{AssetIDs: ids}))
	}
	read := func() watchMessage {
		var msg watchMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		return msg
	}

	send([]string{"a"})
	assert.Equal(t, []string{"a"}, recv(t, svc.started))
	msg := read()
	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, 1, msg.Summary.Running)
	require.Len(t, msg.Jobs, 1)
	assert.Equal(t, "a", msg.Jobs[0].AssetID)

	// a new selection ends the running watch before the next one starts
	send([]string{"b", "c"})
	assert.Equal(t, []string{"a"}, recv(t, svc.stopped))
	assert.Equal(t, []string{"b", "c"}, recv(t, svc.started))
	msg = read()
	assert.Equal(t, 2, msg.Summary.Running)

	// an empty selection stops polling
	send([]string{})
	assert.Equal(t, []string{"b", "c"}, recv(t, svc.stopped))
	assert.Empty(t, recv(t, svc.started))

	send([]string{"d"})
	assert.Equal(t, []string{"d"}, recv(t, svc.started))
	assert.Equal(t, 1, read().Summary.Running)

	// closing the socket cancels the watch
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Equal(t, []string{"d"}, recv(t, svc.stopped))
}

func TestStreamAutoTag_RequiresAuth(t *testing.T) {
	srv := httptest.NewServer(newTestServer(newWatchService(), "admin", "secret"))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/admin/api/assets/auto-tag/stream", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
