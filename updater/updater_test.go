package updater

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeSource answers every ParseResponse with a fixed result.
type fakeSource struct {
	kind string
	pkgs []core.Package
	msg  string

	mu       sync.Mutex
	device   string
	baseline core.Version
	requests int
}

func (s *fakeSource) Kind() string { return s.kind }

func (s *fakeSource) BuildRequest(device string, baseline core.Version) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = device
	s.baseline = baseline
	s.requests++
	return "fake://" + s.kind + "/" + device
}

func (s *fakeSource) ParseResponse([]byte) ([]core.Package, string) {
	return s.pkgs, s.msg
}

func (s *fakeSource) Err() string { return s.msg }

func (s *fakeSource) URLs() core.URLBuilder { return &core.BaseURLs{} }

// fakeTransport fails for targets listed in errs and can hold requests
// until release is closed.
type fakeTransport struct {
	errs    map[string]error
	release chan struct{}
	sent    atomic.Int32
}

func (f *fakeTransport) Send(ctx context.Context, target string) ([]byte, error) {
	f.sent.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[target]; err != nil {
		return nil, err
	}
	return []byte("{}"), nil
}

type recorder struct {
	mu       sync.Mutex
	starts   int
	finishes [][]core.Package
	errs     []error
}

func (r *recorder) OnCheckStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
}

func (r *recorder) OnCheckFinish(pkgs []core.Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishes = append(r.finishes, pkgs)
}

func (r *recorder) OnCheckError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

type recordingNotifier struct {
	mu        sync.Mutex
	available [][]core.Package
	messages  []string
}

func (n *recordingNotifier) NotifyPackagesAvailable(pkgs []core.Package) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.available = append(n.available, pkgs)
}

func (n *recordingNotifier) NotifyInteractiveError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func pkg(t testing.TB, kind core.Kind, filename string) core.Package {
	t.Helper()
	device, v, err := core.SplitPackaging(filename)
	if err != nil {
		t.Fatal(err)
	}
	p, err := core.NewPackage(kind, device, v, filename, 100, "abc", "https://example.com/"+filename)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func newTestUpdater(t *testing.T, sources []core.Source, transport Transport, opts ...Option) (*Updater, *recorder, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	base := []Option{
		WithTransport(transport),
		WithBaseline(StaticBaseline{Device: "mako", Version: "mako-4.4-20140101"}),
		WithNotifier(n),
		WithLogger(quietLogger()),
		WithErrorPrefix("Error checking for ROM updates"),
	}
	u, err := New(sources, append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	r := &recorder{}
	u.AddListener(r)
	return u, r, n
}

func TestNew_NoSources(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoSources) {
		t.Errorf("New(nil) error = %v, want ErrNoSources", err)
	}
}

func TestCheck_FallsBackUntilPackagesFound(t *testing.T) {
	sources := []core.Source{
		&fakeSource{kind: "a", msg: "device not found on server"},
		&fakeSource{kind: "b", msg: "maintenance"},
		&fakeSource{kind: "c", pkgs: []core.Package{
			pkg(t, core.KindROM, "pa_mako-4.4.1-20140201.zip"),
			pkg(t, core.KindROM, "pa_mako-4.4.2-20140301.zip"),
		}},
	}
	u, r, n := newTestUpdater(t, sources, &fakeTransport{})

	if u.CurrentSource() != -1 {
		t.Errorf("CurrentSource() = %d before first check, want -1", u.CurrentSource())
	}
	if !u.Check(context.Background(), false) {
		t.Fatal("Check did not start")
	}
	u.Wait()

	if r.starts != 1 || len(r.finishes) != 1 {
		t.Fatalf("starts = %d, finishes = %d, want 1 and 1", r.starts, len(r.finishes))
	}
	if len(r.errs) != 0 {
		t.Errorf("unexpected errors: %v", r.errs)
	}
	got := r.finishes[0]
	if len(got) != 2 {
		t.Fatalf("got %d packages, want 2", len(got))
	}
	if got[0].Filename != "pa_mako-4.4.2-20140301.zip" {
		t.Errorf("newest package = %q", got[0].Filename)
	}
	if u.CurrentSource() != 2 {
		t.Errorf("CurrentSource() = %d, want 2", u.CurrentSource())
	}
	if len(u.LastUpdates()) != 2 {
		t.Errorf("LastUpdates() has %d packages, want 2", len(u.LastUpdates()))
	}
	if len(n.messages) != 0 || len(n.available) != 0 {
		t.Errorf("unexpected notifications: %v %v", n.messages, n.available)
	}
	if u.Scanning() {
		t.Error("still scanning after Wait")
	}
}

func TestCheck_StopsAtFirstNonEmptySource(t *testing.T) {
	second := &fakeSource{kind: "b", pkgs: []core.Package{pkg(t, core.KindROM, "pa_mako-4.4.5.zip")}}
	sources := []core.Source{
		&fakeSource{kind: "a", pkgs: []core.Package{pkg(t, core.KindROM, "pa_mako-4.4.1.zip")}},
		second,
	}
	u, r, _ := newTestUpdater(t, sources, &fakeTransport{})

	u.Check(context.Background(), false)
	u.Wait()

	if second.requests != 0 {
		t.Errorf("second source was queried %d times", second.requests)
	}
	if r.finishes[0][0].Filename != "pa_mako-4.4.1.zip" {
		t.Errorf("unexpected result %v", r.finishes[0])
	}
}

func TestCheck_AllTransportErrors(t *testing.T) {
	errDown := errors.New("connection refused")
	transport := &fakeTransport{errs: map[string]error{
		"fake://a/mako": errDown,
		"fake://b/mako": errDown,
		"fake://c/mako": errDown,
	}}
	sources := []core.Source{&fakeSource{kind: "a"}, &fakeSource{kind: "b"}, &fakeSource{kind: "c"}}
	u, r, n := newTestUpdater(t, sources, transport)

	u.Check(context.Background(), false)
	u.Wait()

	if r.starts != 1 || len(r.finishes) != 1 {
		t.Fatalf("starts = %d, finishes = %d, want 1 and 1", r.starts, len(r.finishes))
	}
	if len(r.finishes[0]) != 0 {
		t.Errorf("expected empty result, got %d packages", len(r.finishes[0]))
	}
	if len(r.errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(r.errs))
	}

	var terr *core.TransportError
	if !errors.As(r.errs[0], &terr) {
		t.Fatalf("error = %T, want *core.TransportError", r.errs[0])
	}
	if terr.Source != "c" {
		t.Errorf("error from source %q, want the last one", terr.Source)
	}
	if !errors.Is(r.errs[0], errDown) {
		t.Error("transport error should wrap the cause")
	}

	if len(n.messages) != 1 || n.messages[0] != "Error checking for ROM updates" {
		t.Errorf("interactive messages = %q", n.messages)
	}
	if transport.sent.Load() != 3 {
		t.Errorf("sent = %d, want 3", transport.sent.Load())
	}
}

func TestCheck_SourceErrorMessage(t *testing.T) {
	u, r, n := newTestUpdater(t, []core.Source{&fakeSource{kind: "pa", msg: "Device not supported"}}, &fakeTransport{})

	u.Check(context.Background(), false)
	u.Wait()

	var serr *core.SourceError
	if len(r.errs) != 1 || !errors.As(r.errs[0], &serr) {
		t.Fatalf("errors = %v, want one *core.SourceError", r.errs)
	}
	if serr.Message != "Device not supported" {
		t.Errorf("Message = %q", serr.Message)
	}
	if len(n.messages) != 1 || n.messages[0] != "Error checking for ROM updates: Device not supported" {
		t.Errorf("interactive messages = %q", n.messages)
	}
}

func TestCheck_AnsweringSourceSuppressesInteractiveError(t *testing.T) {
	sources := []core.Source{
		&fakeSource{kind: "a"},
		&fakeSource{kind: "b", msg: "device not found on server"},
	}
	u, r, n := newTestUpdater(t, sources, &fakeTransport{})

	u.Check(context.Background(), false)
	u.Wait()

	if len(r.errs) != 1 {
		t.Errorf("got %d errors, want 1", len(r.errs))
	}
	if len(n.messages) != 0 {
		t.Errorf("interactive error should not be shown after a source answered: %q", n.messages)
	}
}

func TestCheck_AllEmpty(t *testing.T) {
	sources := []core.Source{&fakeSource{kind: "a"}, &fakeSource{kind: "b"}}
	u, r, n := newTestUpdater(t, sources, &fakeTransport{})
	u.SetLastUpdates([]core.Package{pkg(t, core.KindROM, "pa_mako-4.4.zip")})

	u.Check(context.Background(), false)
	u.Wait()

	if len(r.finishes) != 1 || len(r.finishes[0]) != 0 {
		t.Errorf("finishes = %v, want one empty result", r.finishes)
	}
	if len(r.errs) != 0 || len(n.messages) != 0 {
		t.Errorf("unexpected errors: %v %v", r.errs, n.messages)
	}
	if len(u.LastUpdates()) != 0 {
		t.Error("LastUpdates should be replaced by the empty result")
	}
}

func TestCheck_ErrorAfterEmptySourceWins(t *testing.T) {
	transport := &fakeTransport{errs: map[string]error{"fake://b/mako": errors.New("timeout")}}
	sources := []core.Source{&fakeSource{kind: "a"}, &fakeSource{kind: "b"}}
	u, r, _ := newTestUpdater(t, sources, transport)

	u.Check(context.Background(), false)
	u.Wait()

	if len(r.errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(r.errs))
	}
}

func TestCheck_EmptyAfterErrorClearsError(t *testing.T) {
	sources := []core.Source{&fakeSource{kind: "a", msg: "broken"}, &fakeSource{kind: "b"}}
	u, r, n := newTestUpdater(t, sources, &fakeTransport{})

	u.Check(context.Background(), false)
	u.Wait()

	if len(r.errs) != 0 || len(n.messages) != 0 {
		t.Errorf("unexpected errors: %v %v", r.errs, n.messages)
	}
}

func TestCheck_FlavorFiltering(t *testing.T) {
	src := &fakeSource{kind: "a", pkgs: []core.Package{
		pkg(t, core.KindROM, "pa_mako-4.4-20140101.zip"),
		pkg(t, core.KindGapps, "pa_gapps-full-4.4-20140301.zip"),
		pkg(t, core.KindROM, "pa_mako-4.4.2-20140101.zip"),
		pkg(t, core.KindGapps, "pa_gapps-mini-4.4-20140201.zip"),
		pkg(t, core.KindROM, "pa_mako-4.4.1-20140101.zip"),
	}}
	u, r, _ := newTestUpdater(t, []core.Source{src}, &fakeTransport{},
		WithSettings(StaticSettings{GappsFlavor: core.FlavorMini, Enabled: true}))

	u.Check(context.Background(), false)
	u.Wait()

	want := []string{
		"pa_mako-4.4.2-20140101.zip",
		"pa_mako-4.4.1-20140101.zip",
		"pa_gapps-mini-4.4-20140201.zip",
		"pa_mako-4.4-20140101.zip",
	}
	got := r.finishes[0]
	if len(got) != len(want) {
		t.Fatalf("got %d packages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Filename != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i].Filename, want[i])
		}
	}
}

func TestCheck_FilteredToEmptyFallsBack(t *testing.T) {
	sources := []core.Source{
		&fakeSource{kind: "a", pkgs: []core.Package{pkg(t, core.KindGapps, "pa_gapps-full-4.4-20140301.zip")}},
		&fakeSource{kind: "b", pkgs: []core.Package{pkg(t, core.KindGapps, "pa_gapps-micro-4.4-20140301.zip")}},
	}
	u, r, _ := newTestUpdater(t, sources, &fakeTransport{},
		WithSettings(StaticSettings{GappsFlavor: core.FlavorMicro}))

	u.Check(context.Background(), false)
	u.Wait()

	if len(r.finishes[0]) != 1 || r.finishes[0][0].Filename != "pa_gapps-micro-4.4-20140301.zip" {
		t.Errorf("unexpected result %v", r.finishes[0])
	}
}

func TestCheck_Scheduled(t *testing.T) {
	src := &fakeSource{kind: "a", pkgs: []core.Package{pkg(t, core.KindROM, "pa_mako-4.4.1.zip")}}

	t.Run("disabled", func(t *testing.T) {
		u, r, _ := newTestUpdater(t, []core.Source{src}, &fakeTransport{},
			WithScheduled(true), WithSettings(StaticSettings{Enabled: false}))

		if u.Check(context.Background(), false) {
			t.Fatal("scheduled check ran while disabled")
		}
		if r.starts != 0 {
			t.Errorf("starts = %d, want 0", r.starts)
		}
		if !u.Check(context.Background(), true) {
			t.Fatal("forced check did not start")
		}
		u.Wait()
		if r.starts != 1 || len(r.finishes) != 1 {
			t.Errorf("starts = %d, finishes = %d", r.starts, len(r.finishes))
		}
	})

	t.Run("notifies available packages", func(t *testing.T) {
		u, _, n := newTestUpdater(t, []core.Source{src}, &fakeTransport{}, WithScheduled(true))

		u.Check(context.Background(), false)
		u.Wait()

		if len(n.available) != 1 || len(n.available[0]) != 1 {
			t.Errorf("available notifications = %v", n.available)
		}
	})

	t.Run("no interactive error", func(t *testing.T) {
		failing := &fakeSource{kind: "b", msg: "broken"}
		u, r, n := newTestUpdater(t, []core.Source{failing}, &fakeTransport{}, WithScheduled(true))

		u.Check(context.Background(), false)
		u.Wait()

		if len(r.errs) != 1 {
			t.Errorf("got %d errors, want 1", len(r.errs))
		}
		if len(n.messages) != 0 {
			t.Errorf("scheduled check showed interactive error %q", n.messages)
		}
	})

	t.Run("interactive check does not notify", func(t *testing.T) {
		u, _, n := newTestUpdater(t, []core.Source{src}, &fakeTransport{})

		u.Check(context.Background(), false)
		u.Wait()

		if len(n.available) != 0 {
			t.Errorf("interactive check notified %v", n.available)
		}
	})
}

func TestCheck_OnlyOneInFlight(t *testing.T) {
	transport := &fakeTransport{release: make(chan struct{})}
	src := &fakeSource{kind: "a", pkgs: []core.Package{pkg(t, core.KindROM, "pa_mako-4.4.1.zip")}}
	u, r, _ := newTestUpdater(t, []core.Source{src}, transport)

	if !u.Check(context.Background(), false) {
		t.Fatal("first check did not start")
	}
	if u.Check(context.Background(), false) {
		t.Error("second check started while the first was running")
	}
	if !u.Scanning() {
		t.Error("Scanning() = false during a check")
	}

	close(transport.release)
	u.Wait()

	if r.starts != 1 || len(r.finishes) != 1 {
		t.Errorf("starts = %d, finishes = %d, want 1 and 1", r.starts, len(r.finishes))
	}
	if transport.sent.Load() != 1 {
		t.Errorf("sent = %d, want 1", transport.sent.Load())
	}
}

func TestCheck_ConcurrentCallers(t *testing.T) {
	transport := &fakeTransport{release: make(chan struct{})}
	u, r, _ := newTestUpdater(t, []core.Source{&fakeSource{kind: "a"}}, transport)

	var started atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if u.Check(context.Background(), true) {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	close(transport.release)
	u.Wait()

	if started.Load() != 1 {
		t.Errorf("%d checks started, want 1", started.Load())
	}
	if r.starts != 1 || len(r.finishes) != 1 {
		t.Errorf("starts = %d, finishes = %d, want 1 and 1", r.starts, len(r.finishes))
	}
}

func TestCheck_CancelledContext(t *testing.T) {
	transport := &fakeTransport{release: make(chan struct{})}
	sources := []core.Source{&fakeSource{kind: "a"}, &fakeSource{kind: "b"}}
	u, r, n := newTestUpdater(t, sources, transport)

	ctx, cancel := context.WithCancel(context.Background())
	u.Check(ctx, false)
	cancel()
	u.Wait()

	if len(r.errs) != 1 || !errors.Is(r.errs[0], context.Canceled) {
		t.Errorf("errors = %v, want one wrapping context.Canceled", r.errs)
	}
	if len(n.messages) != 1 {
		t.Errorf("interactive messages = %q", n.messages)
	}
}

func TestCheck_PassesBaselineToSources(t *testing.T) {
	src := &fakeSource{kind: "a"}
	u, _, _ := newTestUpdater(t, []core.Source{src}, &fakeTransport{},
		WithBaseline(StaticBaseline{Device: "hammerhead", Version: "hammerhead-4.4.2-20140101"}))

	u.Check(context.Background(), false)
	u.Wait()

	if src.device != "hammerhead" {
		t.Errorf("device = %q", src.device)
	}
	if src.baseline.String() != "4.4.2-20140101" {
		t.Errorf("baseline = %s", src.baseline)
	}
}

func TestCheck_MalformedBaselineFallsBackToZero(t *testing.T) {
	src := &fakeSource{kind: "a"}
	u, _, _ := newTestUpdater(t, []core.Source{src}, &fakeTransport{},
		WithBaseline(StaticBaseline{Device: "mako", Version: "garbage"}))

	u.Check(context.Background(), false)
	u.Wait()

	if !src.baseline.Equal(core.V(0, 0, 0)) {
		t.Errorf("baseline = %s, want 0.0.0", src.baseline)
	}
}

func TestRemoveListener(t *testing.T) {
	u, r, _ := newTestUpdater(t, []core.Source{&fakeSource{kind: "a"}}, &fakeTransport{})

	var calls atomic.Int32
	extra := &ListenerFuncs{Start: func() { calls.Add(1) }}
	u.AddListener(extra)
	u.RemoveListener(r)

	u.Check(context.Background(), false)
	u.Wait()

	if r.starts != 0 {
		t.Error("removed listener was notified")
	}
	if calls.Load() != 1 {
		t.Errorf("ListenerFuncs.Start called %d times, want 1", calls.Load())
	}

	u.RemoveListener(extra)
	u.Check(context.Background(), false)
	u.Wait()
	if calls.Load() != 1 {
		t.Error("listener notified after removal")
	}
}

func TestListenersNotifiedInOrder(t *testing.T) {
	u, _, _ := newTestUpdater(t, []core.Source{&fakeSource{kind: "a", msg: "broken"}}, &fakeTransport{})

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}
	for _, name := range []string{"first", "second"} {
		u.AddListener(&ListenerFuncs{
			Start:  func() { record(name + ":start") },
			Finish: func([]core.Package) { record(name + ":finish") },
			Error:  func(error) { record(name + ":error") },
		})
	}

	u.Check(context.Background(), false)
	u.Wait()

	want := []string{
		"first:start", "second:start",
		"first:finish", "first:error",
		"second:finish", "second:error",
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestDispatcher(t *testing.T) {
	var dispatched atomic.Int32
	d := DispatcherFunc(func(fn func()) {
		dispatched.Add(1)
		fn()
	})
	u, r, _ := newTestUpdater(t, []core.Source{&fakeSource{kind: "a"}}, &fakeTransport{}, WithDispatcher(d))

	u.Check(context.Background(), false)
	u.Wait()

	// one start and one finish for the single listener
	if dispatched.Load() != 2 {
		t.Errorf("dispatched = %d, want 2", dispatched.Load())
	}
	if r.starts != 1 || len(r.finishes) != 1 {
		t.Errorf("starts = %d, finishes = %d", r.starts, len(r.finishes))
	}
}

func TestSerial(t *testing.T) {
	s := NewSerial()

	var got []int
	for i := range 100 {
		s.Dispatch(func() { got = append(got, i) })
	}
	s.Close()

	if len(got) != 100 {
		t.Fatalf("ran %d callbacks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("callback %d ran at position %d", v, i)
		}
	}
}

func TestSerialWithUpdater(t *testing.T) {
	s := NewSerial()
	u, r, _ := newTestUpdater(t, []core.Source{&fakeSource{kind: "a"}}, &fakeTransport{}, WithDispatcher(s))

	u.Check(context.Background(), false)
	u.Wait()
	s.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.starts != 1 || len(r.finishes) != 1 {
		t.Errorf("starts = %d, finishes = %d", r.starts, len(r.finishes))
	}
}

func TestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	transport := &fakeTransport{errs: map[string]error{"fake://a/mako": errors.New("refused")}}
	u, _, _ := newTestUpdater(t, []core.Source{&fakeSource{kind: "a"}}, transport,
		WithLogger(logger), WithName("rom"))

	u.Check(context.Background(), false)
	u.Wait()

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Data["updater"] != "rom" {
			t.Errorf("entry %q missing updater field", e.Message)
		}
		if e.Level == logrus.WarnLevel && e.Data["source"] == "a" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning for the unreachable source")
	}
}
