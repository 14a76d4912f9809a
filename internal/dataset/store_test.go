package dataset

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStoreSaveAndOpen(t *testing.T) {
	s := newTestStore(t)

	info, err := s.Save("reviews.csv", strings.NewReader("text,label\nhello,positive\n"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if info.Name != "reviews.csv" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Size == 0 {
		t.Error("Size = 0")
	}

	rc, err := s.Open("reviews.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if !strings.HasPrefix(string(data), "text,label") {
		t.Errorf("content = %q", data)
	}
}

func TestStoreRejectsBadNames(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"", "no-extension", "../escape.csv", "dir/file.csv", ".hidden.csv", "data.txt"} {
		if _, err := s.Save(name, strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q): got %v, want ErrInvalidName", name, err)
		}
		if _, err := s.Open(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q): got %v, want ErrInvalidName", name, err)
		}
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Save("a.csv", strings.NewReader("old")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("a.csv", strings.NewReader("new")); err != nil {
		t.Fatal(err)
	}

	rc, err := s.Open("a.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}

	infos, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(infos))
	}
}

func TestStoreList(t *testing.T) {
	s := newTestStore(t)

	if infos, err := s.List(); err != nil || len(infos) != 0 {
		t.Fatalf("empty store: infos=%v err=%v", infos, err)
	}

	for _, name := range []string{"a.csv", "b.csv"} {
		if _, err := s.Save(name, strings.NewReader("x")); err != nil {
			t.Fatal(err)
		}
	}
	infos, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d entries, want 2", len(infos))
	}
}
