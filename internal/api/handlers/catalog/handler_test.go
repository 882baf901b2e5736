package catalog

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"
)

func newEngine() *ginext.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler()
	r := ginext.New()
	r.GET("/catalog", h.Catalog)
	r.GET("/inspect", h.Inspect)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestCatalog(t *testing.T) {
	w := get(newEngine(), "/catalog")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	for _, want := range []string{`"camera"`, `"kyiv"`, `"travel"`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("catalog lacks %s", want)
		}
	}
}

func TestInspect(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 7)), nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newEngine()

	w := get(r, "/inspect?path="+path)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"width":12`) {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body)
	}
	if w := get(r, "/inspect?path="+path+"&compare="+path); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ratio":1`) {
		t.Fatalf("compare: code = %d, body = %s", w.Code, w.Body)
	}
	if w := get(r, "/inspect"); w.Code != http.StatusBadRequest {
		t.Fatalf("no path: code = %d", w.Code)
	}
	if w := get(r, "/inspect?path="+filepath.Join(t.TempDir(), "nope.jpg")); w.Code != http.StatusNotFound {
		t.Fatalf("missing file: code = %d", w.Code)
	}
}
