package settings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hazyhaar/bionic/focusread/internal/dbopen"
	"github.com/hazyhaar/bionic/transform"
)

func ptr[T any](v T) *T { return &v }

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(dbopen.OpenMemory(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLoad_EmptyIsDefaults(t *testing.T) {
	s := testStore(t)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Defaults(), got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestSave_Partial(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.Save(ctx, Patch{BoldRatio: ptr(30), LineHeight: ptr(2.0)})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := Defaults()
	want.BoldRatio = 30
	want.LineHeight = 2.0
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Save result (-want +got):\n%s", diff)
	}

	loaded, _ := s.Load(ctx)
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Errorf("Load after Save (-want +got):\n%s", diff)
	}

	var rows int
	s.DB().QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows)
	if rows != 2 {
		t.Errorf("stored keys: got %d, want 2", rows)
	}
}

func TestSave_Normalizes(t *testing.T) {
	s := testStore(t)
	got, err := s.Save(context.Background(), Patch{
		BoldRatio:  ptr(140),
		FontWeight: ptr(1200),
		LineHeight: ptr(-1.0),
		FontFamily: ptr(""),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.BoldRatio != 100 || got.FontWeight != MaxWeight || got.LineHeight != 1.7 || got.FontFamily != "default" {
		t.Errorf("normalised: got %+v", got)
	}
}

func TestSave_BumpsVersion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v0, _ := s.Version(ctx)

	s.Save(ctx, Patch{Enabled: ptr(false)})
	v1, _ := s.Version(ctx)
	if v1 != v0+1 {
		t.Errorf("version after Save: got %d, want %d", v1, v0+1)
	}

	s.Save(ctx, Patch{})
	v2, _ := s.Version(ctx)
	if v2 != v1 {
		t.Errorf("empty patch bumped version: %d -> %d", v1, v2)
	}

	s.Reset(ctx)
	v3, _ := s.Version(ctx)
	if v3 != v1+1 {
		t.Errorf("version after Reset: got %d, want %d", v3, v1+1)
	}
}

func TestReset(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.Save(ctx, Full(Settings{BoldRatio: 10, FontWeight: 400, FontFamily: "Lexend", LineHeight: 1.2}))

	if _, err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ := s.Load(ctx)
	if diff := cmp.Diff(Defaults(), got); diff != "" {
		t.Errorf("Load after Reset (-want +got):\n%s", diff)
	}
}

func TestLoad_MalformedValueFallsBack(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.DB().Exec(`INSERT INTO settings (key, value, updated_at) VALUES ('fontWeight', '"heavy"', 0), ('boldRatio', '20', 0), ('legacy', '1', 0)`)

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.FontWeight != 800 || got.BoldRatio != 20 {
		t.Errorf("Load: got %+v", got)
	}
}

func TestLoadOrDefault_ClosedDB(t *testing.T) {
	s := testStore(t)
	s.Close()
	if diff := cmp.Diff(Defaults(), s.LoadOrDefault(context.Background())); diff != "" {
		t.Errorf("LoadOrDefault (-want +got):\n%s", diff)
	}
}

func TestTransformOptions(t *testing.T) {
	st := Defaults()
	st.BoldRatio = 25
	st.FontWeight = 600
	base := transform.DefaultOptions()
	base.ShortWordThreshold = 2

	got := st.TransformOptions(base)
	if got.BoldRatio != 0.25 || got.FontWeight != 600 || got.ShortWordThreshold != 2 {
		t.Errorf("TransformOptions: got %+v", got)
	}
}

func TestWatcher_DeliversChange(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Settings
	w := NewWatcher(s, WatchOptions{Interval: 10 * time.Millisecond})
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func(st Settings) error {
			mu.Lock()
			got = append(got, st)
			mu.Unlock()
			return nil
		})
		close(done)
	}()

	// Let the watcher seed its version before writing.
	time.Sleep(30 * time.Millisecond)
	if _, err := s.Save(ctx, Patch{BoldRatio: ptr(70)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].BoldRatio != 70 {
		t.Fatalf("delivered: got %+v, want one change with BoldRatio 70", got)
	}
	if st := w.Stats(); st.ChangesDetected != 1 || st.Version != 1 {
		t.Errorf("Stats: got %+v", st)
	}
}
