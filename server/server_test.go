package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TFMV/hapviz/config"
)

const level1 = `source,target,clusterId,APlevel,sourcefilename,targetfilename,clustersize,sourceTopWords,targetTopWords
A,X,3,1,a.txt,x.txt,2,alpha,xray
B,X,3,1,b.txt,x.txt,2,beta,xray
C,Y,7,1,c.txt,y.txt,1,gamma,yankee
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level1.csv"), []byte(level1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	cfg := config.Default()
	cfg.Server.DataDir = dir
	cfg.Server.TickDelay = config.Duration{}
	cfg.Layout.MaxIterations = 5
	return cfg
}

func newTestServer(t *testing.T, logger *zap.Logger) (*Server, *httptest.Server) {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	s := New(testConfig(t), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	page := body.String()
	assert.Contains(t, page, `id="selDataSet"`)
	assert.Contains(t, page, `id="selGraphType"`)
	assert.Contains(t, page, `id="btnShowGraph"`)
	assert.Contains(t, page, `value="level1.csv" selected`)
	assert.Contains(t, page, "Selected data set 1: ")
	assert.NotContains(t, page, "notes")
}

func TestDatasets(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/datasets")
	require.NoError(t, err)
	defer resp.Body.Close()

	var datasets []Dataset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&datasets))
	require.Len(t, datasets, 1)
	assert.Equal(t, "level1.csv", datasets[0].Key)
	assert.Equal(t, "level1", datasets[0].Name)
	assert.Equal(t, "file", datasets[0].Source)
}

func TestSelectionIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, ts := newTestServer(t, zap.New(core))

	body := strings.NewReader(`{"dataSet":"level1.csv","graphType":"bubble"}`)
	resp, err := http.Post(ts.URL+"/api/selection", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 1, logs.FilterMessage("Selected data set 1: level1.csv").Len())
	assert.Equal(t, 1, logs.FilterMessage("Selected graph type 1: bubble").Len())

	resp, err = http.Post(ts.URL+"/api/selection", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIGraph(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/graph?dataset=level1.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var graph struct {
		Name  string `json:"name"`
		Nodes []struct {
			Role  string `json:"role"`
			Name  string `json:"name"`
			Color string `json:"color"`
		} `json:"nodes"`
		Positions []struct{ X, Y float64 } `json:"positions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&graph))
	assert.Equal(t, "level1", graph.Name)
	require.Len(t, graph.Nodes, 5)
	assert.Equal(t, "A", graph.Nodes[0].Name)
	assert.Equal(t, "target", graph.Nodes[1].Role)
	assert.Equal(t, "hsl(3,100%,50%)", graph.Nodes[1].Color)
	assert.Len(t, graph.Positions, 5)
}

func TestNotFound(t *testing.T) {
	_, ts := newTestServer(t, nil)

	for _, path := range []string{
		"/api/graph?dataset=missing.csv",
		"/api/graph?dataset=../level1.csv",
		"/visualize?dataset=missing.csv",
		"/ws?dataset=missing.csv",
	} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestVisualize(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		format      string
		contentType string
		status      int
	}{
		{"svg", "image/svg+xml", http.StatusOK},
		{"png", "image/png", http.StatusOK},
		{"json", "application/json", http.StatusOK},
		{"gif", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/visualize?dataset=level1.csv&format=" + tt.format)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			}
		})
	}
}

func postUpload(t *testing.T, url, filename, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("dataFile", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func TestUpload(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp := postUpload(t, ts.URL, "extra.json", `[{"source":"D","target":"Z","clusterId":9}]`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ds Dataset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ds))
	assert.Equal(t, "extra", ds.Name)
	assert.Equal(t, "upload", ds.Source)

	datasets, err := s.Store().List()
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, ds.Key, datasets[1].Key)

	graph, err := s.Store().Load(ds.Key)
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 2)
	assert.Equal(t, "hsl(9,100%,50%)", graph.Nodes[0].Color)

	bad := postUpload(t, ts.URL, "data.xml", "<rows/>")
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	broken := postUpload(t, ts.URL, "broken.json", "{")
	broken.Body.Close()
	assert.Equal(t, http.StatusBadRequest, broken.StatusCode)
}

func TestStream(t *testing.T) {
	_, ts := newTestServer(t, nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?dataset=level1.csv"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	type message struct {
		Type  string `json:"type"`
		Tick  int    `json:"tick"`
		Nodes []struct {
			Index  int     `json:"index"`
			Name   string  `json:"name"`
			Radius float64 `json:"radius"`
			X      float64 `json:"x"`
		} `json:"nodes"`
	}
	read := func() message {
		var m message
		require.NoError(t, c.ReadJSON(&m))
		return m
	}

	first := read()
	assert.Equal(t, MessageNodes, first.Type)
	require.Len(t, first.Nodes, 5)
	assert.Equal(t, "X", first.Nodes[1].Name)
	assert.Equal(t, 10.0, first.Nodes[1].Radius)

	for i := 1; i <= 5; i++ {
		m := read()
		assert.Equal(t, MessageTick, m.Type)
		assert.Equal(t, i, m.Tick)
		require.Len(t, m.Nodes, 5)
		assert.Equal(t, 4, m.Nodes[4].Index)
	}

	last := read()
	assert.Equal(t, MessageEnd, last.Type)
	assert.Equal(t, 5, last.Tick)
}
