package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medstore/m/internal/apperr"
)

func TestBucket_UploadAndServe(t *testing.T) {
	store := New(t.TempDir(), "http://files.test/storage/")
	b, err := store.Bucket("avatars")
	if err != nil {
		t.Fatalf("Bucket() error = %v", err)
	}
	ctx := context.Background()

	if err := b.Upload(ctx, "profile_1_a.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), false); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := b.PublicURL("profile_1_a.jpg"); got != "http://files.test/storage/avatars/profile_1_a.jpg" {
		t.Errorf("PublicURL() = %q", got)
	}

	err = b.Upload(ctx, "profile_1_a.jpg", "image/jpeg", strings.NewReader("again"), false)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second Upload() error = %v, want conflict", err)
	}
	if err := b.Upload(ctx, "profile_1_a.jpg", "image/jpeg", strings.NewReader("replaced"), true); err != nil {
		t.Fatalf("upsert Upload() error = %v", err)
	}

	srv := httptest.NewServer(http.StripPrefix("/storage", store.Handler()))
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/storage/avatars/profile_1_a.jpg")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "replaced" {
		t.Errorf("GET = %d %q", resp.StatusCode, body)
	}
}

func TestBucket_RejectsBadInput(t *testing.T) {
	b, err := New(t.TempDir(), "http://x").Bucket("avatars")
	if err != nil {
		t.Fatalf("Bucket() error = %v", err)
	}
	tests := []struct {
		name        string
		object      string
		contentType string
	}{
		{name: "path traversal", object: "../secret.jpg", contentType: "image/jpeg"},
		{name: "hidden file", object: ".env", contentType: "image/jpeg"},
		{name: "not an image", object: "a.txt", contentType: "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Upload(context.Background(), tt.object, tt.contentType, strings.NewReader("x"), true)
			if !apperr.IsValidation(err) {
				t.Errorf("Upload() error = %v, want validation", err)
			}
		})
	}
}
