// Package updater resolves available updates by querying catalog sources in
// priority order.
//
// An Updater owns an ordered list of sources. A check asks each source in
// turn, falling back to the next one when a source is unreachable, answers
// with an error, or has nothing newer than the installed baseline. The first
// source that returns packages ends the check. Listeners see exactly one
// OnCheckStart and one OnCheckFinish per check, plus OnCheckError when the
// check ended on a failure.
package updater

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/pa-ota/catalog/internal/core"
	"github.com/sirupsen/logrus"
)

// ErrNoSources is returned by New when no catalog source is given.
var ErrNoSources = errors.New("updater: no catalog sources")

// Transport retrieves a catalog document. Timeouts and cancellation are its
// concern; any error it returns is treated as the source being unreachable.
type Transport interface {
	Send(ctx context.Context, target string) ([]byte, error)
}

// BaselineProvider reports the installed device and its packaging version
// string, e.g. ("mako", "mako-4.4-20140101").
type BaselineProvider interface {
	Baseline() (device, version string)
}

// Settings supplies the Google Apps flavor and whether scheduled checks are
// enabled.
type Settings interface {
	Flavor() core.Flavor
	ChecksEnabled() bool
}

// Notifier receives results meant for the user outside of listeners.
type Notifier interface {
	// NotifyPackagesAvailable is called when a scheduled check found updates.
	NotifyPackagesAvailable(pkgs []core.Package)
	// NotifyInteractiveError is called when a user-started check failed on
	// every source without any of them answering.
	NotifyInteractiveError(message string)
}

// Updater drives update checks against an ordered list of sources. At most
// one check runs at a time.
type Updater struct {
	name        string
	sources     []core.Source
	transport   Transport
	baseline    BaselineProvider
	settings    Settings
	notifier    Notifier
	dispatcher  Dispatcher
	log         logrus.FieldLogger
	scheduled   bool
	errorPrefix string

	mu        sync.Mutex
	scanning  bool
	current   int
	succeeded bool
	last      []core.Package
	listeners []Listener
	done      chan struct{}
}

// New creates an Updater querying sources in the given order.
func New(sources []core.Source, opts ...Option) (*Updater, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	u := &Updater{
		name:        "updates",
		sources:     slices.Clone(sources),
		baseline:    StaticBaseline{},
		settings:    StaticSettings{GappsFlavor: core.FlavorFull, Enabled: true},
		notifier:    nopNotifier{},
		dispatcher:  Direct,
		log:         logrus.StandardLogger(),
		errorPrefix: "Unable to check for updates",
		current:     -1,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.transport == nil {
		u.transport = defaultTransport()
	}
	u.log = u.log.WithField("updater", u.name)
	return u, nil
}

// Name returns the name given with WithName.
func (u *Updater) Name() string {
	return u.name
}

// Check starts a check unless one is already running, or unless this is a
// scheduled updater, scheduled checks are disabled and force is false. It
// returns whether a check was started. The check itself runs in the
// background; use Wait to block until it has finished.
func (u *Updater) Check(ctx context.Context, force bool) bool {
	u.mu.Lock()
	if u.scanning {
		u.mu.Unlock()
		u.log.Debug("Check already running")
		return false
	}
	if u.scheduled && !force && !u.settings.ChecksEnabled() {
		u.mu.Unlock()
		u.log.Debug("Scheduled checks are disabled")
		return false
	}
	u.scanning = true
	u.succeeded = false
	u.current = -1
	done := make(chan struct{})
	u.done = done
	listeners := slices.Clone(u.listeners)
	u.mu.Unlock()

	u.log.Info("Checking for updates")
	for _, l := range listeners {
		u.dispatcher.Dispatch(l.OnCheckStart)
	}

	go u.run(ctx, done)
	return true
}

// Wait blocks until the running check, if any, has finished and its
// listeners have been dispatched.
func (u *Updater) Wait() {
	u.mu.Lock()
	done := u.done
	u.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (u *Updater) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	device, version := u.baseline.Baseline()
	baseline := core.SafeParsePackaging(version)
	flavor := u.settings.Flavor()

	var lastErr error
	for {
		src, ok := u.advance()
		if !ok {
			break
		}

		log := u.log.WithFields(logrus.Fields{"source": src.Kind(), "device": device})
		target := src.BuildRequest(device, baseline)

		payload, err := u.transport.Send(ctx, target)
		if err != nil {
			log.WithError(err).Warn("Catalog unreachable")
			lastErr = &core.TransportError{Source: src.Kind(), Target: target, Err: err}
			continue
		}

		pkgs, msg := src.ParseResponse(payload)
		pkgs = core.Rank(core.FilterFlavor(pkgs, flavor))

		switch {
		case len(pkgs) > 0:
			log.WithField("packages", len(pkgs)).Info("Updates found")
			u.markSucceeded()
			if u.scheduled {
				u.notifier.NotifyPackagesAvailable(slices.Clone(pkgs))
			}
			u.finish(pkgs, nil)
			return

		case msg == "":
			log.Debug("No updates from catalog")
			u.markSucceeded()
			lastErr = nil

		default:
			log.WithField("error", msg).Warn("Catalog reported an error")
			lastErr = &core.SourceError{Source: src.Kind(), Message: msg}
		}
	}

	if lastErr != nil {
		u.mu.Lock()
		succeeded := u.succeeded
		u.mu.Unlock()
		if !u.scheduled && !succeeded {
			u.notifier.NotifyInteractiveError(u.interactiveMessage(lastErr))
		}
	}
	u.finish(nil, lastErr)
}

// advance moves to the next source. It returns false once every source has
// been tried.
func (u *Updater) advance() (core.Source, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.current++
	if u.current >= len(u.sources) {
		return nil, false
	}
	return u.sources[u.current], true
}

func (u *Updater) markSucceeded() {
	u.mu.Lock()
	u.succeeded = true
	u.mu.Unlock()
}

func (u *Updater) interactiveMessage(err error) string {
	var srcErr *core.SourceError
	if errors.As(err, &srcErr) {
		return u.errorPrefix + ": " + srcErr.Message
	}
	return u.errorPrefix
}

func (u *Updater) finish(pkgs []core.Package, err error) {
	if pkgs == nil {
		pkgs = []core.Package{}
	}

	u.mu.Lock()
	u.scanning = false
	u.last = pkgs
	listeners := slices.Clone(u.listeners)
	u.mu.Unlock()

	if err != nil {
		u.log.WithError(err).Info("Check finished with an error")
	} else {
		u.log.WithField("packages", len(pkgs)).Info("Check finished")
	}

	for _, l := range listeners {
		u.dispatcher.Dispatch(func() {
			l.OnCheckFinish(slices.Clone(pkgs))
			if err != nil {
				l.OnCheckError(err)
			}
		})
	}
}

// LastUpdates returns the result of the last finished check, newest first.
func (u *Updater) LastUpdates() []core.Package {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.last)
}

// SetLastUpdates replaces the stored result, e.g. with one restored from a
// previous run.
func (u *Updater) SetLastUpdates(pkgs []core.Package) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = slices.Clone(pkgs)
}

// Scanning reports whether a check is running.
func (u *Updater) Scanning() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.scanning
}

// CurrentSource returns the index of the source being queried, -1 before
// the first check has started.
func (u *Updater) CurrentSource() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}

// AddListener registers l. Listeners are notified in registration order.
func (u *Updater) AddListener(l Listener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = append(u.listeners, l)
}

// RemoveListener unregisters l.
func (u *Updater) RemoveListener(l Listener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = slices.DeleteFunc(u.listeners, func(x Listener) bool {
		return x == l
	})
}
