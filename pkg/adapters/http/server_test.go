package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *StreamManager) {
	t.Helper()
	streams := NewStreamManager(nil)
	metrics := observability.NewMetrics()
	eng := selector.New(selector.WithLifecycleHooks(streams.Hooks().Merge(metrics.Hooks())))

	opts = append([]Option{WithStreams(streams), WithMetrics(metrics)}, opts...)
	handler, err := NewHandler(eng, opts...)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, streams
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSelect_Increment(t *testing.T) {
	srv, _ := newTestServer(t)

	var got []string
	for range 4 {
		resp := postJSON(t, srv.URL+"/select", map[string]any{
			"key": "colors", "text": "red|green|blue", "behavior": "increment",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		res := decode[domain.Result](t, resp)
		assert.Equal(t, 3, res.Total)
		got = append(got, res.Segment)
	}
	assert.Equal(t, []string{"red", "green", "blue", "red"}, got)
}

func TestSelect_Defaults(t *testing.T) {
	srv, _ := newTestServer(t, WithDefaults(domain.Request{
		Key: "fallback", Delimiter: ",", Behavior: domain.BehaviorDecrement,
	}))

	resp := postJSON(t, srv.URL+"/select", map[string]any{"text": "a,b,c"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a", decode[domain.Result](t, resp).Segment)

	resp = postJSON(t, srv.URL+"/select", map[string]any{"text": "a,b,c"})
	assert.Equal(t, "c", decode[domain.Result](t, resp).Segment)

	// An explicit empty delimiter keeps the whole text.
	resp = postJSON(t, srv.URL+"/select", map[string]any{"key": "whole", "text": "a,b", "delimiter": ""})
	assert.Equal(t, "a,b", decode[domain.Result](t, resp).Segment)

	resp, err := http.Get(srv.URL + "/selectors")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, []string{"fallback", "whole"}, decode[KeysResponse](t, resp).Keys)
}

func TestSelect_ControlCharacterDelimiter(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/select", map[string]any{
		"key": "units", "text": "red\x1fgreen\x1b\x1fblue", "delimiter": "\x1f", "behavior": "increment",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[domain.Result](t, resp)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, "red", res.Segment)
}

func TestSelect_EmptyText(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/select", map[string]any{"key": "blank", "text": ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.Result{}, decode[domain.Result](t, resp))

	get, err := http.Get(srv.URL + "/selectors/blank")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusNotFound, get.StatusCode)
}

func TestSelect_Rejections(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"unknown behavior", map[string]any{"text": "a|b", "behavior": "sideways"}, http.StatusBadRequest},
		{"missing text", map[string]any{"key": "k"}, http.StatusBadRequest},
		{"negative start", map[string]any{"text": "a|b", "start_index": -1}, http.StatusBadRequest},
		{"wrong type", map[string]any{"text": 42}, http.StatusBadRequest},
		{"too large", map[string]any{"text": strings.Repeat("x", 128*1024)}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/select", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[errorBody](t, resp).Error)
		})
	}
}

func TestBatch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/batch", map[string]any{
		"items": []map[string]any{
			{"key": "a", "text": "red|green", "behavior": "increment", "repeat": 2},
			{"key": "b", "text": "", "repeat": 3},
			{"key": "c", "text": "x"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[domain.Batch](t, resp)
	assert.Equal(t, 6, out.RepeatCount)
	require.Len(t, out.Segments, 3)
	assert.Equal(t, []string{"red", "red", "red", "red", "red", "red"}, out.Segments[0])
	assert.Equal(t, "red x", out.Combined[0])
}

func TestBatch_InvalidRepeat(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		items []map[string]any
	}{
		{"zero", []map[string]any{{"key": "a", "text": "a|b", "repeat": 0}}},
		{"above maximum", []map[string]any{{"key": "a", "text": "a|b", "repeat": 10001}}},
		{"huge", []map[string]any{{"key": "a", "text": "a|b", "repeat": int64(1e10)}}},
		{"product above maximum", []map[string]any{
			{"key": "a", "text": "a|b", "repeat": 200},
			{"key": "b", "text": "a|b", "repeat": 100},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/batch", map[string]any{"items": tt.items})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, err := http.Get(srv.URL + "/selectors")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, decode[KeysResponse](t, resp).Keys)
}

func TestSelectors_InspectAndReset(t *testing.T) {
	srv, _ := newTestServer(t)

	postJSON(t, srv.URL+"/select", map[string]any{"key": "tab/1", "text": "a|b", "behavior": "increment"})

	resp, err := http.Get(srv.URL + "/selectors/tab%2F1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[domain.State](t, resp)
	assert.Equal(t, []string{"a", "b"}, state.Collection)
	assert.Equal(t, 1, state.CurrentIndex)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/selectors/tab%2F1", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	missing, err := http.Get(srv.URL + "/selectors/tab%2F1")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestAuxiliaryRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	postJSON(t, srv.URL+"/select", map[string]any{"text": "a|b"})

	tests := []struct {
		path     string
		contains string
	}{
		{"/health", `"status":"ok"`},
		{"/info", `"app":"selector-http"`},
		{"/openapi.yaml", "operationId: selectSegment"},
		{"/swagger", "swagger-ui"},
		{"/metrics", `selector_selections_total{behavior="fix"} 1`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var buf bytes.Buffer
			_, err = buf.ReadFrom(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/select", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	srv, streams := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?key=colors", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return event, data
			}
		}
	}

	event, data := readEvent()
	assert.Equal(t, "ping", event)
	assert.Equal(t, "connected", data)
	require.Eventually(t, func() bool { return streams.Subscribers("colors") == 1 }, time.Second, 10*time.Millisecond)

	postJSON(t, srv.URL+"/select", map[string]any{"key": "other", "text": "x"})
	postJSON(t, srv.URL+"/select", map[string]any{"key": "colors", "text": "red|green", "behavior": "increment"})

	event, data = readEvent()
	assert.Equal(t, string(domain.EventSelect), event)
	var sel domain.SelectEvent
	require.NoError(t, json.Unmarshal([]byte(data), &sel))
	assert.Equal(t, "colors", sel.Key)
	assert.Equal(t, "red", sel.Segment)
	assert.Equal(t, 1, sel.NextIndex)
}

func TestStreamManager_Broadcast(t *testing.T) {
	sm := NewStreamManager(nil)

	keyed, cancelKeyed := sm.Subscribe("k")
	all, cancelAll := sm.Subscribe(AllKeys)

	sm.Broadcast("k", Message{Event: "select", Data: "{}"})
	assert.Equal(t, "select", (<-keyed).Event)
	assert.Equal(t, "select", (<-all).Event)

	sm.Broadcast("other", Message{Event: "reset", Data: "{}"})
	assert.Equal(t, "reset", (<-all).Event)
	assert.Empty(t, keyed)

	cancelKeyed()
	cancelKeyed()
	cancelAll()
	assert.Zero(t, sm.Subscribers("k"))
	assert.Zero(t, sm.Subscribers(AllKeys))
}
