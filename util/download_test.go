package util

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDataURIRoundTrip(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	uri := ToDataURI(raw)
	if got, want := uri[:22], "data:image/png;base64,"; got != want {
		t.Errorf("prefix = %q, want %q", got, want)
	}
	decoded, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Errorf("decoded = %v, want %v", decoded, raw)
	}
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	if _, err := DecodeDataURI("no comma here"); err == nil {
		t.Error("DecodeDataURI should reject a string without a payload separator")
	}
}

func TestDownloadImage(t *testing.T) {
	payload := []byte("fake image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	got, err := DownloadImage(srv.URL)
	if err != nil {
		t.Fatalf("DownloadImage() error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("DownloadImage() = %q, want %q", got, payload)
	}
}
