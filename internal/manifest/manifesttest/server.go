// Package manifesttest serves a fake launcher manifest, version metadata and
// server artifacts for tests.
package manifesttest

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Version describes one published version.
type Version struct {
	ID       string
	Artifact []byte
	// Checksum overrides the advertised sha1; empty means the artifact's real digest.
	Checksum string
	// NoServer omits the server download from the metadata.
	NoServer bool
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	release  string
	snapshot string
	versions []Version
	requests map[string]int
	failJar  int
}

// NewServer starts a server publishing versions with the given latest ids.
func NewServer(t testing.TB, release, snapshot string, versions ...Version) *Server {
	t.Helper()
	s := &Server{
		release:  release,
		snapshot: snapshot,
		versions: versions,
		requests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/mc/game/version_manifest.json", s.handleManifest)
	mux.HandleFunc("/v1/packages/{id}", s.handleMetadata)
	mux.HandleFunc("/objects/{id}/server.jar", s.handleArtifact)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) ManifestURL() string {
	return s.URL + "/mc/game/version_manifest.json"
}

// Requests returns how many times path was requested.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// FailArtifact makes every artifact request answer with status.
func (s *Server) FailArtifact(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failJar = status
}

// Checksum returns the hex sha1 of data.
func Checksum(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.URL.Path]++
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	type entry struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		URL  string `json:"url"`
	}
	doc := struct {
		Latest   map[string]string `json:"latest"`
		Versions []entry           `json:"versions"`
	}{
		Latest: map[string]string{"release": s.release, "snapshot": s.snapshot},
	}
	for _, v := range s.versions {
		doc.Versions = append(doc.Versions, entry{ID: v.ID, Type: "release", URL: s.URL + "/v1/packages/" + v.ID})
	}
	writeJSON(w, doc)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	v, ok := s.find(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	downloads := map[string]interface{}{}
	if !v.NoServer {
		checksum := v.Checksum
		if checksum == "" {
			checksum = Checksum(v.Artifact)
		}
		downloads["server"] = map[string]interface{}{
			"url":  s.URL + "/objects/" + v.ID + "/server.jar",
			"sha1": checksum,
			"size": len(v.Artifact),
		}
	}
	writeJSON(w, map[string]interface{}{"id": v.ID, "downloads": downloads})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	s.mu.Lock()
	failStatus := s.failJar
	s.mu.Unlock()
	if failStatus != 0 {
		w.WriteHeader(failStatus)
		return
	}

	v, ok := s.find(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(v.Artifact)
}

func (s *Server) find(id string) (Version, bool) {
	for _, v := range s.versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
