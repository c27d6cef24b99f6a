package repository_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/tdiff/internal/engine"
	tderrors "github.com/NamanBalaji/tdiff/internal/errors"
	"github.com/NamanBalaji/tdiff/internal/repository"
	"github.com/NamanBalaji/tdiff/pkg/torrent/bencode"
)

func newRepo(t *testing.T, opts repository.Options) *repository.BboltRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath, opts)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func manifestBytes(t *testing.T, name string) []byte {
	t.Helper()
	data, err := bencode.Marshal(map[string]any{
		"announce": "http://tracker.example/announce",
		"comment":  strings.Repeat("padding ", 64),
		"info": map[string]any{
			"name":         name,
			"piece length": 16,
			"pieces":       bytes.Repeat([]byte{7}, 40),
			"files": []map[string]any{
				{"length": 20, "path": []string{"a", "one.bin"}},
				{"length": 12, "path": []string{"two.bin"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return data
}

func inspect(t *testing.T, name string) (*engine.Inspection, []byte) {
	t.Helper()
	e, err := engine.New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	data := manifestBytes(t, name)
	insp, err := e.Inspect(name+".torrent", data)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	return insp, data
}

func TestNewBboltRepository_OpenError(t *testing.T) {
	dir := t.TempDir()
	_, err := repository.NewBboltRepository(dir, repository.Options{})
	if err == nil {
		t.Errorf("Expected error when opening DB on directory path, got nil")
	}
}

func TestNewBboltRepository_BadCompressionLevel(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	_, err := repository.NewBboltRepository(dbPath, repository.Options{CompressionLevel: "ultra"})
	if err == nil {
		t.Errorf("Expected error for unknown compression level, got nil")
	}
}

func TestSaveNilManifest(t *testing.T) {
	repo := newRepo(t, repository.Options{})

	err := repo.SaveManifest(nil, nil)
	if err == nil || err.Error() != "cannot save nil manifest" {
		t.Errorf("Expected error 'cannot save nil manifest', got %v", err)
	}
}

func TestManifestLifecycle(t *testing.T) {
	repo := newRepo(t, repository.Options{StoreRaw: true})
	insp, data := inspect(t, "alpha")
	rec := repository.NewManifestRecord(insp)

	list, err := repo.FindAllManifests()
	if err != nil {
		t.Fatalf("FindAllManifests error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %d items", len(list))
	}

	has, err := repo.HasManifest(rec.Hash)
	if err != nil || has {
		t.Fatalf("HasManifest before save = %v, %v", has, err)
	}

	if err := repo.SaveManifest(rec, data); err != nil {
		t.Fatalf("SaveManifest error: %v", err)
	}

	has, err = repo.HasManifest(strings.ToUpper(rec.Hash))
	if err != nil || !has {
		t.Fatalf("HasManifest after save = %v, %v", has, err)
	}

	got, err := repo.FindManifest(rec.Hash)
	if err != nil {
		t.Fatalf("FindManifest error: %v", err)
	}
	if got.Name != "alpha" || got.TotalSize != 32 || len(got.Files) != 2 || got.PieceCount != 2 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Files[0].Path != "a/one.bin" || got.Files[0].Fingerprint != insp.Files[0].Fingerprint {
		t.Errorf("unexpected file record %+v", got.Files[0])
	}
	if !got.AddedAt.Equal(rec.AddedAt) {
		t.Errorf("AddedAt = %v, want %v", got.AddedAt, rec.AddedAt)
	}
	if got.RawSize != len(data) {
		t.Errorf("RawSize = %d, want %d", got.RawSize, len(data))
	}

	raw, err := repo.RawManifest(rec.Hash)
	if err != nil {
		t.Fatalf("RawManifest error: %v", err)
	}
	if !bytes.Equal(raw, data) {
		t.Error("RawManifest returned different bytes")
	}

	other, otherData := inspect(t, "beta")
	if err := repo.SaveManifest(repository.NewManifestRecord(other), otherData); err != nil {
		t.Fatalf("SaveManifest error: %v", err)
	}
	list, err = repo.FindAllManifests()
	if err != nil {
		t.Fatalf("FindAllManifests error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 manifests, got %d", len(list))
	}

	if err := repo.DeleteManifest(rec.Hash); err != nil {
		t.Errorf("DeleteManifest error: %v", err)
	}
	if err := repo.DeleteManifest(rec.Hash); !errors.Is(err, repository.ErrManifestNotFound) {
		t.Errorf("second DeleteManifest error = %v, want ErrManifestNotFound", err)
	}
	if _, err := repo.FindManifest(rec.Hash); !errors.Is(err, repository.ErrManifestNotFound) {
		t.Errorf("FindManifest after delete = %v, want ErrManifestNotFound", err)
	}
	if _, err := repo.RawManifest(rec.Hash); !errors.Is(err, repository.ErrManifestNotFound) {
		t.Errorf("RawManifest after delete = %v, want ErrManifestNotFound", err)
	}
}

func TestRawNotStored(t *testing.T) {
	repo := newRepo(t, repository.Options{StoreRaw: false})
	insp, data := inspect(t, "alpha")

	if err := repo.SaveManifest(repository.NewManifestRecord(insp), data); err != nil {
		t.Fatalf("SaveManifest error: %v", err)
	}

	_, err := repo.RawManifest(insp.Hash)
	if !errors.Is(err, repository.ErrManifestNotFound) {
		t.Errorf("RawManifest error = %v, want ErrManifestNotFound", err)
	}
}

func TestInvalidHash(t *testing.T) {
	repo := newRepo(t, repository.Options{})

	for _, h := range []string{"", "xyz", "abc"} {
		if _, err := repo.HasManifest(h); err == nil {
			t.Errorf("HasManifest(%q) expected error", h)
		}
		if err := repo.DeleteManifest(h); err == nil {
			t.Errorf("DeleteManifest(%q) expected error", h)
		}
	}
}

func TestCatalogFeedsEngine(t *testing.T) {
	repo := newRepo(t, repository.Options{})
	insp, data := inspect(t, "alpha")
	if err := repo.SaveManifest(repository.NewManifestRecord(insp), data); err != nil {
		t.Fatalf("SaveManifest error: %v", err)
	}

	e, err := engine.New(nil, repo)
	if err != nil {
		t.Fatal(err)
	}
	_, betaData := inspect(t, "beta")
	report, err := e.Compare(context.Background(), []engine.Source{
		{Name: "alpha", Data: data},
		{Name: "beta", Data: betaData},
	})
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	if !report.Manifests[0].Known || report.Manifests[1].Known {
		t.Errorf("Known = %v/%v, want true/false", report.Manifests[0].Known, report.Manifests[1].Known)
	}
}

func TestReportLifecycle(t *testing.T) {
	repo := newRepo(t, repository.Options{})
	e, err := engine.New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, data := inspect(t, "alpha")
	report, err := e.Compare(context.Background(), []engine.Source{
		{Name: "alpha", Data: data},
		{Name: "broken", Data: []byte("d")},
	})
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}

	if err := repo.SaveReport(report); err != nil {
		t.Fatalf("SaveReport error: %v", err)
	}

	got, err := repo.FindReport(report.ID)
	if err != nil {
		t.Fatalf("FindReport error: %v", err)
	}
	if got.ID != report.ID || !got.CreatedAt.Equal(report.CreatedAt) {
		t.Errorf("header mismatch: %v %v", got.ID, got.CreatedAt)
	}
	if len(got.Rows) != len(report.Rows) || len(got.Manifests) != 1 {
		t.Errorf("rows=%d manifests=%d", len(got.Rows), len(got.Manifests))
	}
	if len(got.Failures) != 1 || got.Failures[0].Category != tderrors.CategoryMalformed || got.Failures[0].Source != "broken" {
		t.Errorf("failures = %v", got.Failures)
	}
	if got.Rows[0].Cells[0].Path != report.Rows[0].Cells[0].Path {
		t.Errorf("cell = %+v", got.Rows[0].Cells[0])
	}

	second, err := e.Compare(context.Background(), []engine.Source{{Name: "alpha", Data: data}})
	if err != nil {
		t.Fatal(err)
	}
	second.CreatedAt = report.CreatedAt.Add(time.Second)
	if err := repo.SaveReport(second); err != nil {
		t.Fatalf("SaveReport error: %v", err)
	}

	all, err := repo.FindAllReports()
	if err != nil {
		t.Fatalf("FindAllReports error: %v", err)
	}
	if len(all) != 2 || all[0].ID != report.ID || all[1].ID != second.ID {
		t.Errorf("FindAllReports order wrong: %v", all)
	}

	if _, err := repo.FindReport(uuid.New()); !errors.Is(err, repository.ErrReportNotFound) {
		t.Errorf("FindReport error = %v, want ErrReportNotFound", err)
	}
	if _, err := repo.FindReport(uuid.Nil); err == nil {
		t.Error("expected error for Nil ID")
	}
	if err := repo.SaveReport(nil); err == nil {
		t.Error("expected error saving nil report")
	}
}

func TestCloseBehavior(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath, repository.Options{})
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}

	err = repo.Close()
	if err != nil {
		t.Fatalf("Close error: %v", err)
	}

	insp, data := inspect(t, "alpha")
	err = repo.SaveManifest(repository.NewManifestRecord(insp), data)
	if err == nil {
		t.Errorf("Expected error SaveManifest after Close, got nil")
	}
	_, err = repo.FindAllManifests()
	if err == nil {
		t.Errorf("Expected error FindAllManifests after Close, got nil")
	}

	err = repo.SaveReport(&engine.Report{ID: uuid.New()})
	if err == nil {
		t.Errorf("Expected error SaveReport after Close, got nil")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.NewBboltRepository(dbPath, repository.Options{StoreRaw: true, CompressionLevel: "best"})
	if err != nil {
		t.Fatal(err)
	}
	insp, data := inspect(t, "alpha")
	if err := repo.SaveManifest(repository.NewManifestRecord(insp), data); err != nil {
		t.Fatal(err)
	}
	if err := repo.Close(); err != nil {
		t.Fatal(err)
	}

	repo, err = repository.NewBboltRepository(dbPath, repository.Options{StoreRaw: true, CompressionLevel: "fastest"})
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	raw, err := repo.RawManifest(insp.Hash)
	if err != nil || !bytes.Equal(raw, data) {
		t.Errorf("RawManifest after reopen = %v", err)
	}
}
