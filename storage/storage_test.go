package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestObjectKeys(t *testing.T) {
	key := NewObjectKey(7, "Holiday.JPG")
	if !strings.HasPrefix(key, "social-media/7/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}
	if owner, ok := OwnerOf(key); !ok || owner != 7 {
		t.Fatalf("OwnerOf(%q) = %d, %v", key, owner, ok)
	}
	if NewObjectKey(7, "a.jpg") == NewObjectKey(7, "a.jpg") {
		t.Fatal("keys must be unique")
	}
	if k := NewObjectKey(1, "weird.ex$"); !strings.HasPrefix(k, "social-media/1/") || strings.Contains(k, "$") {
		t.Fatalf("unsafe extension kept: %q", k)
	}

	invalid := []string{"", "social-media/0/x.png", "other/1/x.png", "social-media/abc/x.png", "social-media/1/", "social-media/1/../2/x.png"}
	for _, k := range invalid {
		if ValidKey(k) {
			t.Errorf("ValidKey(%q) = true", k)
		}
	}
	if !ValidKey("/" + key) {
		t.Errorf("leading slash should be tolerated: %q", key)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	var store ObjectStore = NewMemoryStore()

	if err := store.Put(ctx, "social-media/1/a.png", strings.NewReader("png-bytes"), 9, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	obj, err := store.Get(ctx, "social-media/1/a.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer obj.Body.Close()
	b, _ := io.ReadAll(obj.Body)
	if string(b) != "png-bytes" || obj.ContentType != "image/png" || obj.Size != 9 {
		t.Fatalf("unexpected object: %q %+v", b, obj)
	}

	if err := store.Delete(ctx, "social-media/1/a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "social-media/1/a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
