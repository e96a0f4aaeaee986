package db

import (
	"context"
	"database/sql"
	"reflect"
	"testing"
)

func testPrefs(t *testing.T) (*Prefs, *sql.DB) {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewPrefs(database), database
}

func TestPrefs_GetSet(t *testing.T) {
	p, _ := testPrefs(t)
	ctx := context.Background()

	if _, ok, err := p.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := p.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := p.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}

	v, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("Get(k) = %q, %v, %v; want v2", v, ok, err)
	}
}

func TestPrefs_Location(t *testing.T) {
	p, _ := testPrefs(t)
	ctx := context.Background()

	ref, err := p.Location(ctx)
	if err != nil || ref != "" {
		t.Fatalf("Location() before set = %q, %v", ref, err)
	}
	display, err := p.LocationDisplay(ctx)
	if err != nil || display != DefaultLocationDisplay {
		t.Fatalf("LocationDisplay() before set = %q, %v", display, err)
	}

	if err := p.SetLocation(ctx, "file:///notes", "/notes"); err != nil {
		t.Fatalf("SetLocation failed: %v", err)
	}

	ref, _ = p.Location(ctx)
	display, _ = p.LocationDisplay(ctx)
	if ref != "file:///notes" || display != "/notes" {
		t.Errorf("after SetLocation: ref %q display %q", ref, display)
	}
}

func TestPrefs_Tags(t *testing.T) {
	p, database := testPrefs(t)
	ctx := context.Background()

	tags, err := p.AllTags(ctx)
	if err != nil {
		t.Fatalf("AllTags failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("AllTags() = %v, want empty", tags)
	}

	if err := p.AddTags(ctx, []string{"work", "ideas"}); err != nil {
		t.Fatalf("AddTags failed: %v", err)
	}
	if err := p.AddTags(ctx, []string{"ideas", "", "reading"}); err != nil {
		t.Fatalf("AddTags failed: %v", err)
	}
	if err := p.AddTags(ctx, nil); err != nil {
		t.Fatalf("AddTags(nil) failed: %v", err)
	}

	tags, err = p.AllTags(ctx)
	if err != nil {
		t.Fatalf("AllTags failed: %v", err)
	}
	want := []string{"ideas", "reading", "work"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("AllTags() = %v, want %v", tags, want)
	}

	var count int
	if err := database.QueryRow(`SELECT use_count FROM tags WHERE tag = 'ideas'`).Scan(&count); err != nil {
		t.Fatalf("query use_count: %v", err)
	}
	if count != 2 {
		t.Errorf("use_count(ideas) = %d, want 2", count)
	}
}

func TestPrefs_ClosedDB(t *testing.T) {
	p, database := testPrefs(t)
	database.Close()

	if _, err := p.Location(context.Background()); err == nil {
		t.Error("Location on closed db expected error")
	}
	if err := p.AddTags(context.Background(), []string{"x"}); err == nil {
		t.Error("AddTags on closed db expected error")
	}
}
