package button

import "testing"

type recordingCues struct {
	noColor, shutdown, locked, success int
}

func (c *recordingCues) ShowNoColor()  { c.noColor++ }
func (c *recordingCues) ShowShutdown() { c.shutdown++ }
func (c *recordingCues) ShowLocked()   { c.locked++ }
func (c *recordingCues) ShowSuccess()  { c.success++ }

// TestS1ShortClick mirrors scenario S1.
func TestS1ShortClick(t *testing.T) {
	var s State
	cues := &recordingCues{}

	if got := Task(&s, 0, true, true, cues); got != Ignore {
		t.Fatalf("expected Ignore on press edge, got %v", got)
	}
	if got := Task(&s, 200, false, false, cues); got != Clicked {
		t.Fatalf("expected Clicked on quick release, got %v", got)
	}
	if cues.success != 1 {
		t.Fatalf("expected one success cue, got %d", cues.success)
	}
}

// TestS2LongPressShutdown mirrors scenario S2.
func TestS2LongPressShutdown(t *testing.T) {
	var s State
	cues := &recordingCues{}

	Task(&s, 0, true, true, cues)
	Task(&s, 1050, true, false, cues) // inside shutdown band
	if cues.shutdown != 1 {
		t.Fatalf("expected shutdown cue while held past 1000ms, got %d", cues.shutdown)
	}

	got := Task(&s, 1300, false, false, cues)
	if got != Shutdown {
		t.Fatalf("expected Shutdown on release at 1300ms, got %v", got)
	}
}

func TestLongPressLock(t *testing.T) {
	var s State
	cues := &recordingCues{}

	Task(&s, 0, true, true, cues)
	Task(&s, 2050, true, false, cues) // inside lock band
	if cues.locked != 1 {
		t.Fatalf("expected locked cue while held past 2000ms, got %d", cues.locked)
	}

	got := Task(&s, 2500, false, false, cues)
	if got != LockOrHardwareReset {
		t.Fatalf("expected LockOrHardwareReset, got %v", got)
	}
}

func TestDebounceFloorSuppressesTinyPress(t *testing.T) {
	var s State
	cues := &recordingCues{}

	Task(&s, 0, true, true, cues)
	got := Task(&s, 30, false, false, cues) // below 50ms debounce floor
	if got != Ignore {
		t.Fatalf("expected Ignore for sub-debounce-floor press, got %v", got)
	}
}

// TestDebounceFloorDefersRecognitionPastFloor mirrors button.c's coupling of
// the release reset to the debounce check: a release seen before the floor
// leaves evalStartMs untouched, so a later tick past the floor still
// resolves the original press instead of losing it.
func TestDebounceFloorDefersRecognitionPastFloor(t *testing.T) {
	var s State
	cues := &recordingCues{}

	Task(&s, 0, true, true, cues)
	if got := Task(&s, 30, false, false, cues); got != Ignore {
		t.Fatalf("expected Ignore for sub-debounce-floor release, got %v", got)
	}
	if !s.IsEvaluating() {
		t.Fatalf("expected evaluation to still be pending after a sub-floor release")
	}

	got := Task(&s, 60, false, false, cues)
	if got != Clicked {
		t.Fatalf("expected deferred Clicked once elapsed passes the debounce floor, got %v", got)
	}
	if cues.success != 1 {
		t.Fatalf("expected one success cue, got %d", cues.success)
	}
	if s.IsEvaluating() {
		t.Fatalf("expected evaluation to be cleared after resolving past the floor")
	}
}

func TestIdleWithoutInterruptIgnores(t *testing.T) {
	var s State
	cues := &recordingCues{}
	if got := Task(&s, 0, false, false, cues); got != Ignore {
		t.Fatalf("expected Ignore with no interrupt and idle state, got %v", got)
	}
	if cues.noColor != 0 {
		t.Fatalf("expected no cue without an interrupt edge, got %d", cues.noColor)
	}
}

func TestWhilePressedReturnsIgnoreOutsideCueBands(t *testing.T) {
	var s State
	cues := &recordingCues{}
	Task(&s, 0, true, true, cues)
	if got := Task(&s, 500, true, false, cues); got != Ignore {
		t.Fatalf("expected Ignore mid-press outside any cue band, got %v", got)
	}
	if cues.shutdown != 0 || cues.locked != 0 {
		t.Fatalf("expected no cues outside their bands, got %+v", cues)
	}
}
