package storage

import (
	"testing"

	"microlight/internal/hal/halmock"
)

func TestReadSettingsEmptyWhenErased(t *testing.T) {
	s := New(halmock.NewFlash(2048))
	_, ok := s.ReadSettings()
	if ok {
		t.Fatal("expected erased settings page to read as not-ok")
	}
}

func TestWriteThenReadSettingsRoundTrips(t *testing.T) {
	s := New(halmock.NewFlash(2048))
	want := []byte(`{"modeCount":2}`)
	if !s.WriteSettings(want) {
		t.Fatal("expected write to succeed")
	}
	got, ok := s.ReadSettings()
	if !ok {
		t.Fatal("expected read to succeed after write")
	}
	if string(got) != string(want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWriteExactMultipleOfWordSizeStillTerminates(t *testing.T) {
	s := New(halmock.NewFlash(2048))
	want := make([]byte, 16) // exact multiple of wordSize
	for i := range want {
		want[i] = 'a'
	}
	if !s.WriteSettings(want) {
		t.Fatal("expected write to succeed")
	}
	got, ok := s.ReadSettings()
	if !ok {
		t.Fatal("expected read to succeed")
	}
	if string(got) != string(want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestModeSlotsAreIndependent(t *testing.T) {
	s := New(halmock.NewFlash(2048))
	if !s.WriteMode(0, []byte("mode0")) {
		t.Fatal("expected write to succeed")
	}
	if !s.WriteMode(3, []byte("mode3")) {
		t.Fatal("expected write to succeed")
	}
	got0, ok := s.ReadMode(0)
	if !ok || string(got0) != "mode0" {
		t.Fatalf("mode 0: got %q ok=%v", got0, ok)
	}
	got3, ok := s.ReadMode(3)
	if !ok || string(got3) != "mode3" {
		t.Fatalf("mode 3: got %q ok=%v", got3, ok)
	}
	_, ok = s.ReadMode(1)
	if ok {
		t.Fatal("expected untouched mode slot to read as not-ok")
	}
}

func TestWriteTruncatesOversizedDocuments(t *testing.T) {
	s := New(halmock.NewFlash(2048))
	big := make([]byte, 3000)
	for i := range big {
		big[i] = 'x'
	}
	if !s.WriteSettings(big) {
		t.Fatal("expected write to succeed after truncation")
	}
	got, ok := s.ReadSettings()
	if !ok {
		t.Fatal("expected read to succeed")
	}
	if len(got) >= 2048 {
		t.Fatalf("expected truncated document under page size, got len %d", len(got))
	}
}
