package asset

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected a local resource")
	}
	if res.Ext() != ".go" {
		t.Fatalf("expected extension .go; got %s", res.Ext())
	}
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchURL := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	fetchURL = server.URL + "/file-not-found.obj"
	expError := fmt.Sprintf("asset: could not fetch '%s': status %d", fetchURL, 404)
	_, err = NewResource(fetchURL, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeResource(t *testing.T) {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/mesh.obj" || r.URL.Path == "/models/texture.png" {
			w.Write([]byte("OK"))
			return
		}
		http.NotFound(w, r)
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	mesh, err := NewResource(server.URL+"/models/mesh.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer mesh.Close()

	// Texture referenced relative to the mesh location.
	tex, err := NewResource("texture.png", mesh)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Close()

	if !strings.HasSuffix(tex.Path(), "/models/texture.png") {
		t.Fatalf("expected relative resolution against the mesh dir; got %s", tex.Path())
	}
}

func TestStreamResource(t *testing.T) {
	res := NewResourceFromStream("embedded.obj", strings.NewReader("v 0 0 0"))
	defer res.Close()

	if res.Ext() != ".obj" {
		t.Fatalf("expected extension .obj; got %s", res.Ext())
	}
}
