// Package server serves the live bubble preview and rendered datasets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TFMV/hapviz/config"
	"github.com/TFMV/hapviz/ingest"
	"github.com/TFMV/hapviz/render"
)

// uploads larger than this are rejected
const maxUploadSize = 10 << 20

// GraphTypes are the layouts offered by the preview page
var GraphTypes = []string{"bubble", "drift"}

// Server is the preview web server
type Server struct {
	cfg      *config.Config
	store    *Store
	logger   *zap.Logger
	router   chi.Router
	upgrader websocket.Upgrader
}

// New creates a server for cfg
func New(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		store:  NewStore(cfg.Server.DataDir, cfg, logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// Store returns the dataset store
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/api/datasets", s.handleDatasets)
	r.Post("/api/selection", s.handleSelection)
	r.Get("/api/graph", s.handleAPIGraph)
	r.Get("/visualize", s.handleVisualize)
	r.Post("/upload", s.handleUpload)
	r.Get("/ws", s.handleStream)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.String("addr", server.Addr), zap.String("dataDir", s.cfg.Server.DataDir))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// fail maps an error to an HTTP status
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, render.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		s.logger.Error("Request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

type indexPage struct {
	Datasets   []Dataset
	GraphTypes []string
	Dataset    string
	GraphType  string
	Width      float64
	Height     float64
	Background string
}

// handleIndex renders the preview page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.List()
	if err != nil {
		s.fail(w, err)
		return
	}

	page := indexPage{
		Datasets:   datasets,
		GraphTypes: GraphTypes,
		Dataset:    r.URL.Query().Get("dataset"),
		GraphType:  r.URL.Query().Get("type"),
		Width:      s.cfg.Layout.Width,
		Height:     s.cfg.Layout.Height,
		Background: s.cfg.Palette().Background,
	}
	if page.Dataset == "" && len(datasets) > 0 {
		page.Dataset = datasets[0].Key
	}
	if page.GraphType == "" {
		page.GraphType = GraphTypes[0]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		s.logger.Error("Rendering index", zap.Error(err))
	}
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.List()
	if err != nil {
		s.fail(w, err)
		return
	}
	if datasets == nil {
		datasets = []Dataset{}
	}
	writeJSON(w, http.StatusOK, datasets)
}

// Selection is what the page reports when the show button is clicked
type Selection struct {
	DataSet   string `json:"dataSet"`
	GraphType string `json:"graphType"`
}

// handleSelection logs the page selection. Nothing else happens.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var sel Selection
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&sel); err != nil {
		http.Error(w, "invalid selection: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("Selected data set 1: "+sel.DataSet, zap.String("dataSet", sel.DataSet))
	s.logger.Info("Selected graph type 1: "+sel.GraphType, zap.String("graphType", sel.GraphType))
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIGraph returns a laid-out dataset as JSON
func (s *Server) handleAPIGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.store.Load(r.URL.Query().Get("dataset"))
	if err != nil {
		s.fail(w, err)
		return
	}

	options := s.cfg.OutputOptions("json")
	options.Logger = s.logger
	if r.URL.Query().Get("type") == "drift" {
		options.Layout = "noise"
	}
	if err := render.Layout(r.Context(), graph.Graph, options); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

// handleVisualize renders a dataset in the requested format
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	if _, err := render.GetRenderer(format); err != nil {
		s.fail(w, err)
		return
	}

	graph, err := s.store.Load(r.URL.Query().Get("dataset"))
	if err != nil {
		s.fail(w, err)
		return
	}

	options := s.cfg.OutputOptions(format)
	options.Logger = s.logger
	options.Title = graph.Name
	output, err := render.GenerateWithOptions(r.Context(), graph, options)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	_, _ = w.Write(output)
}

// handleUpload stores an uploaded data file
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Error parsing form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("dataFile")
	if err != nil {
		http.Error(w, "Error retrieving file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading file: "+err.Error(), http.StatusBadRequest)
		return
	}

	// unsupported or unparseable files are client errors
	ds, err := s.store.Put(header.Filename, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if format := r.FormValue("outputFormat"); format != "" {
		http.Redirect(w, r, fmt.Sprintf("/visualize?dataset=%s&format=%s", ds.Key, format), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>hapviz</title>
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 20px; color: #333; }
    select, button { padding: 6px; font-size: 14px; margin-right: 8px; }
    svg { display: block; margin-top: 16px; border: 1px solid #eee; }
    circle { stroke: rgba(0,0,0,0.3); stroke-width: 0.5; }
  </style>
</head>
<body>
  <div>
    <select id="selDataSet">
      {{range .Datasets}}<option value="{{.Key}}"{{if eq .Key $.Dataset}} selected{{end}}>{{.Name}}</option>
      {{end}}
    </select>
    <select id="selGraphType">
      {{range .GraphTypes}}<option value="{{.}}"{{if eq . $.GraphType}} selected{{end}}>{{.}}</option>
      {{end}}
    </select>
    <button id="btnShowGraph">Show graph</button>
  </div>
  <svg id="chart" width="{{.Width}}" height="{{.Height}}" style="background: {{.Background}}"></svg>
  <script>
    document.getElementById("btnShowGraph").addEventListener("click", function () {
      var valSelectedDataSet = document.getElementById("selDataSet").value;
      var valSelectedGraphType = document.getElementById("selGraphType").value;
      console.log("Selected data set 1: ", valSelectedDataSet);
      console.log("Selected graph type 1: ", valSelectedGraphType);
      fetch("/api/selection", {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify({dataSet: valSelectedDataSet, graphType: valSelectedGraphType})
      });
    });

    (function () {
      var dataset = {{.Dataset}};
      if (!dataset) { return; }
      var svg = document.getElementById("chart");
      var ns = "http://www.w3.org/2000/svg";
      var circles = [];
      var proto = location.protocol === "https:" ? "wss://" : "ws://";
      var ws = new WebSocket(proto + location.host + "/ws?dataset=" + encodeURIComponent(dataset) +
        "&type=" + encodeURIComponent({{.GraphType}}));
      ws.onmessage = function (ev) {
        var msg = JSON.parse(ev.data);
        if (msg.type === "nodes") {
          msg.nodes.forEach(function (n) {
            var c = document.createElementNS(ns, "circle");
            c.setAttribute("r", n.radius);
            c.setAttribute("cx", n.x);
            c.setAttribute("cy", n.y);
            c.style.fill = n.color;
            var title = document.createElementNS(ns, "title");
            title.textContent = n.name;
            c.appendChild(title);
            svg.appendChild(c);
            circles.push(c);
          });
        } else if (msg.type === "tick") {
          msg.nodes.forEach(function (p) {
            circles[p.index].setAttribute("cx", p.x);
            circles[p.index].setAttribute("cy", p.y);
          });
        } else if (msg.type === "end") {
          ws.close();
        }
      };
    })();
  </script>
</body>
</html>
`))
