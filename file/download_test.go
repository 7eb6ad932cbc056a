package file

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quartzproof/rigprep/common"
)

func TestDownload(t *testing.T) {
	payload := []byte("#!/bin/sh\necho installer\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "installer.sh")
	if err := Download(context.Background(), srv.URL, dest, common.FileMode0755); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("downloaded content = %q, want %q", got, payload)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat downloaded file: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("downloaded file mode = %v, want 0755", info.Mode().Perm())
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Errorf("temporary .part file left behind")
	}
}

func TestDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "installer.sh")
	if err := Download(context.Background(), srv.URL, dest, common.FileMode0755); err == nil {
		t.Fatal("expected error for 404 response, got nil")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination file should not exist after failed download")
	}
}

func TestVerifySHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	if err := os.WriteFile(path, []byte("quartz"), 0644); err != nil {
		t.Fatal(err)
	}

	sum, err := SHA256Sum(path)
	if err != nil {
		t.Fatalf("SHA256Sum returned error: %v", err)
	}

	if err := VerifySHA256(path, sum); err != nil {
		t.Errorf("VerifySHA256 with matching sum: %v", err)
	}
	if err := VerifySHA256(path, strings.ToUpper(sum)); err != nil {
		t.Errorf("VerifySHA256 should compare case-insensitively, got %v", err)
	}
	if err := VerifySHA256(path, "deadbeef"); err == nil {
		t.Error("VerifySHA256 with wrong sum should fail")
	}
	if err := VerifySHA256(path, ""); err != nil {
		t.Errorf("VerifySHA256 with empty pin should be a no-op, got %v", err)
	}
}
