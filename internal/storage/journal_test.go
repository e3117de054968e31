/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "exports.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, p := range []string{"a.png", "b.png", "c.png"} {
		e, err := j.Record(ctx, Entry{Path: p, Width: 600, Height: 600, Strokes: i, CreatedAt: base.Add(time.Duration(i) * time.Second)})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if e.ID == "" {
			t.Fatalf("expected generated id")
		}
	}
	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Path != "c.png" || got[1].Path != "b.png" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("created_at = %v", got[0].CreatedAt)
	}
	all, _ := j.Recent(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}
}

func TestRecentOrdersSubsecond(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	_, _ = j.Record(ctx, Entry{Path: "whole.png", CreatedAt: base})
	_, _ = j.Record(ctx, Entry{Path: "half.png", CreatedAt: base.Add(500 * time.Millisecond)})
	got, err := j.Recent(ctx, 1)
	if err != nil || len(got) != 1 || got[0].Path != "half.png" {
		t.Fatalf("got %+v err %v", got, err)
	}
}

func TestGetAndThumb(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	e, err := j.Record(ctx, Entry{Path: "x.png", Thumb: []byte{1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := j.Get(ctx, e.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got.Thumb) != string([]byte{1, 2, 3}) {
		t.Fatalf("thumb = %v", got.Thumb)
	}
	if _, ok, err := j.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing: ok=%v err=%v", ok, err)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		if _, err := j.Record(ctx, Entry{Path: "p.png", Strokes: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := j.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Fatalf("removed %d, want 3", n)
	}
	left, _ := j.Recent(ctx, 0)
	if len(left) != 2 || left[0].Strokes != 4 || left[1].Strokes != 3 {
		t.Fatalf("kept wrong rows: %+v", left)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "exports.sqlite")
	j, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Record(ctx, Entry{Path: "keep.png"}); err != nil {
		t.Fatal(err)
	}
	_ = j.Close()
	j2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	got, _ := j2.Recent(ctx, 0)
	if len(got) != 1 || got[0].Path != "keep.png" {
		t.Fatalf("got %+v", got)
	}
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Record(ctx, Entry{Path: "x"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Record after close: %v", err)
	}
	if _, err := j.Recent(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("Recent after close: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
