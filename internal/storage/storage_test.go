package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/unclebandit/cardscan-backend/internal/config"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "user-1/card-1.png", []byte("png-bytes"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, ct, err := s.Get(ctx, "user-1/card-1.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "png-bytes" || ct != "image/png" {
		t.Errorf("got %q %q", data, ct)
	}

	if err := s.Delete(ctx, "user-1/card-1.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Get(ctx, "user-1/card-1.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "user-1/card-1.png"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v", err)
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, _ := NewLocalStore(t.TempDir())
	if err := s.Put(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Fatal("expected error for traversal key")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "s3"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewMinioStore(t *testing.T) {
	s, err := NewMinioStore(config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "cards"})
	if err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}
	if s.bucket != "cards" {
		t.Errorf("bucket = %q", s.bucket)
	}
}
