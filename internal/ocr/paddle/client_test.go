package paddle

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/facturaIA/ocr-chat-service/internal/ocr"
)

func TestClientOCRSendsImage(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`[[[[[0,0],[1,0],[1,1],[0,1]],["Hello",0.98]]]]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/"})
	raw, err := c.OCR(context.Background(), ocr.ImageInput(image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	if err != nil {
		t.Fatalf("OCR() error = %v", err)
	}
	if got.Image == "" || got.Path != "" || got.Lang != "en" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if lines := ocr.Normalize(raw); len(lines) != 1 || lines[0] != "Hello" {
		t.Fatalf("Normalize(raw) = %v", lines)
	}
}

func TestClientPredictSendsPath(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[{"rec_texts":["A","","  B  "],"rec_scores":[0.9,0.1,0.8]}]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Lang: "fr"})
	raw, err := c.Predict(context.Background(), ocr.PathInput("/tmp/scan.png"))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got.Path != "/tmp/scan.png" || got.Image != "" || got.Lang != "fr" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	lines := ocr.Normalize(raw)
	if strings.Join(lines, "|") != "A|B" {
		t.Fatalf("Normalize(raw) = %v", lines)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"unexpected keyword argument 'cls'"}`))
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).OCR(context.Background(), ocr.PathInput("/x.png"))
	if err == nil || !strings.Contains(err.Error(), "unexpected keyword argument") {
		t.Fatalf("expected sidecar error message, got %v", err)
	}
}

func TestClientNullResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	raw, err := New(Options{BaseURL: srv.URL}).OCR(context.Background(), ocr.PathInput("/x.png"))
	if err != nil || raw != nil {
		t.Fatalf("expected nil result without error, got %v, %v", raw, err)
	}
}

func TestClientImplementsPredictor(t *testing.T) {
	var engine ocr.Engine = New(Options{})
	if _, ok := engine.(ocr.Predictor); !ok {
		t.Fatalf("paddle client should expose the predict entry point")
	}
}
