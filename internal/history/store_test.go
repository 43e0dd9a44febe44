// SPDX-License-Identifier: MPL-2.0

package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowrun/flowrun/internal/testutil"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *testutil.FakeClock) {
	t.Helper()

	clock := testutil.NewFakeClock(time.Time{})
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewStore(filepath.Join(t.TempDir(), ".flowrun", "history"), opts...), clock
}

func TestStore_EmptyHistory(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	records, err := s.Records()
	if err != nil || len(records) != 0 {
		t.Fatalf("Records() = %v, %v; want empty", records, err)
	}
	if exists, err := s.ExistsByName("anything"); err != nil || exists {
		t.Errorf("ExistsByName() = %v, %v", exists, err)
	}
	if _, found, err := s.Last(); err != nil || found {
		t.Errorf("Last() found = %v, err = %v", found, err)
	}
}

func TestStore_StartFinish(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(t)
	session := uuid.New()

	started, err := s.Start(Record{
		RunName:   "brave_turing",
		Revision:  "abc1234",
		SessionID: session,
		Command:   "flowrun run acme/etl\t--threads 4",
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started.Status != StatusRunning || !started.Timestamp.Equal(clock.Now()) {
		t.Errorf("Start() = %+v", started)
	}

	if exists, _ := s.ExistsByName("brave_turing"); !exists {
		t.Error("started run should be visible to ExistsByName")
	}

	clock.Advance(1500 * time.Millisecond)
	if err := s.Finish("brave_turing", session, StatusOK); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	records, err := s.Records()
	if err != nil || len(records) != 1 {
		t.Fatalf("Records() = %v, %v", records, err)
	}
	rec := records[0]
	if rec.Status != StatusOK || rec.Duration != 1500*time.Millisecond || rec.SessionID != session {
		t.Errorf("finished record = %+v", rec)
	}
	if rec.Command != "flowrun run acme/etl --threads 4" {
		t.Errorf("Command = %q, tabs should be replaced", rec.Command)
	}

	if err := s.Finish("brave_turing", session, StatusErr); err == nil {
		t.Error("finishing a run twice should fail")
	}
}

func TestStore_Lookup(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(t)
	first, second := uuid.New(), uuid.New()

	for _, rec := range []Record{
		{RunName: "happy_curie", SessionID: first},
		{RunName: "sleepy_gauss", SessionID: second},
		{RunName: "kind_noether", SessionID: first},
	} {
		if _, err := s.Start(rec); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Minute)
	}

	tests := []struct {
		key       string
		wantName  string
		wantFound bool
	}{
		{key: "", wantName: "kind_noether", wantFound: true},
		{key: first.String(), wantName: "kind_noether", wantFound: true},
		{key: second.String(), wantName: "sleepy_gauss", wantFound: true},
		{key: "happy_curie", wantName: "happy_curie", wantFound: true},
		{key: uuid.NewString(), wantFound: false},
		{key: "nobody", wantFound: false},
	}

	for _, tt := range tests {
		rec, found, err := s.Lookup(tt.key)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", tt.key, err)
		}
		if found != tt.wantFound || (found && rec.RunName != tt.wantName) {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.key, rec.RunName, found, tt.wantName, tt.wantFound)
		}
	}
}

func TestStore_GenerateNextName(t *testing.T) {
	t.Parallel()

	// The picker walks through indexes 0,0 then 1,1: the first candidate is
	// taken, so the second one is returned.
	var (
		mu    sync.Mutex
		calls int
	)
	pick := func(int) int {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return (calls - 1) / 2
	}

	s, _ := newTestStore(t, WithPicker(pick))
	taken := adjectives[0] + "_" + scientists[0]
	if _, err := s.Start(Record{RunName: taken, SessionID: uuid.New()}); err != nil {
		t.Fatal(err)
	}

	name, err := s.GenerateNextName()
	if err != nil {
		t.Fatalf("GenerateNextName() error = %v", err)
	}
	if want := adjectives[1] + "_" + scientists[1]; name != want {
		t.Errorf("GenerateNextName() = %q, want %q", name, want)
	}
}

func TestNextName_FallsBackToNumbers(t *testing.T) {
	t.Parallel()

	base := adjectives[0] + "_" + scientists[0]
	used := map[string]bool{base: true, base + "_2": true}

	name := nextName(func(int) int { return 0 }, func(n string) bool { return used[n] })
	if name != base+"_3" {
		t.Errorf("nextName() = %q, want %q", name, base+"_3")
	}
}

func TestStore_MalformedHistory(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	testutil.MustWriteFile(t, s.Path(), "2025-01-01T00:00:00Z\t-\tonly three\n")

	_, err := s.Records()
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) || malformed.Line != 1 {
		t.Fatalf("Records() error = %v, want MalformedRecordError at line 1", err)
	}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Error("error should match ErrMalformedRecord")
	}
}

func TestStore_ConcurrentStart(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			if _, err := s.Start(Record{RunName: "run_" + strings.Repeat("x", i), SessionID: uuid.New()}); err != nil {
				t.Errorf("Start() error = %v", err)
			}
		})
	}
	wg.Wait()

	records, err := s.Records()
	if err != nil || len(records) != 20 {
		t.Fatalf("Records() = %d records, %v; want 20", len(records), err)
	}
}

func TestRecord_EncodeDecode(t *testing.T) {
	t.Parallel()

	rec := Record{
		Timestamp: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Duration:  2 * time.Minute,
		RunName:   "jolly_hopper",
		Status:    StatusErr,
		Revision:  "v1.0.0 (0123456)",
		SessionID: uuid.MustParse("6f1c2f4e-1b7a-4a8e-9a53-3c1f0d5e7b21"),
		Command:   "flowrun run -",
	}

	line := rec.encode()
	if want := "2025-03-04T05:06:07Z\t2m0s\tjolly_hopper\tERR\tv1.0.0 (0123456)\t6f1c2f4e-1b7a-4a8e-9a53-3c1f0d5e7b21\tflowrun run -"; line != want {
		t.Errorf("encode() = %q, want %q", line, want)
	}

	got, err := decodeRecord(line, 1)
	if err != nil {
		t.Fatalf("decodeRecord() error = %v", err)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
	got.Timestamp = rec.Timestamp
	if got != rec {
		t.Errorf("decodeRecord() = %+v, want %+v", got, rec)
	}
}

func TestStore_LockFileNextToHistory(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	if _, err := s.Start(Record{RunName: "a", SessionID: uuid.New()}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("history file missing: %v", err)
	}
}
