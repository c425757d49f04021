package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/NewsGraph/internal/database"
	"github.com/TobiSchelling/NewsGraph/internal/recency"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Server is the HTTP server for browsing the recent graph.
type Server struct {
	db    *database.DB
	view  *recency.View
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, view *recency.View) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":  renderMarkdown,
		"sentiment": formatSentiment,
		"date": func(t time.Time) string {
			return t.UTC().Format("Jan 02, 2006 15:04 MST")
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "node.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, view: view, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/graph.json", s.handleGraphJSON)
	s.mux.HandleFunc("/node/", s.handleNode)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap, err := s.view.Snapshot()
	if err != nil {
		log.Error("building snapshot", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Report":   Report(snap),
		"Snapshot": snap,
	})
}

// GraphJSON is the node-link document served at /graph.json.
type GraphJSON struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// GraphNode is one node of GraphJSON. Sentiment is the display value in [0,1].
type GraphNode struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Sentiment float64 `json:"sentiment"`
}

// GraphLink connects two node names.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// BuildGraphJSON converts a snapshot into the node-link document.
func BuildGraphJSON(snap *recency.Snapshot) GraphJSON {
	out := GraphJSON{
		Nodes: make([]GraphNode, 0, len(snap.Nodes)),
		Links: make([]GraphLink, 0, len(snap.Edges)),
	}
	names := make(map[int64]string, len(snap.Nodes))
	for _, n := range snap.Nodes {
		names[n.ID] = n.Name
		out.Nodes = append(out.Nodes, GraphNode{ID: n.ID, Name: n.Name, Sentiment: DisplaySentiment(n.Sentiment)})
	}
	for _, e := range snap.Edges {
		out.Links = append(out.Links, GraphLink{Source: names[e.Origin], Target: names[e.Destination], Weight: e.Weight})
	}
	return out
}

func (s *Server) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.view.Snapshot()
	if err != nil {
		log.Error("building snapshot", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(BuildGraphJSON(snap)); err != nil {
		log.Error("encoding graph", "err", err)
	}
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/node/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	node, err := s.db.GetNode(id)
	if err != nil {
		log.Error("loading node", "node", id, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if node == nil {
		http.NotFound(w, r)
		return
	}

	refs, err := s.db.GetNodeSourceRefs(id)
	if err != nil {
		log.Error("loading node sources", "node", id, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	observations, err := s.db.GetNodeSentiments(id)
	if err != nil {
		log.Error("loading node sentiments", "node", id, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "node.html", map[string]any{
		"Node":         node,
		"Sources":      refs,
		"Observations": observations,
		"Recent":       recency.NodeIsRecent(*node, s.view.Now(), s.view.Window()),
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error("template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Error("rendering template", "template", name, "err", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, view *recency.View, port int) error {
	srv, err := New(db, view)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Info("server listening", "url", "http://"+addr)
	return http.ListenAndServe(addr, srv.Handler())
}
