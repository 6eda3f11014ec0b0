package updater

import (
	"github.com/sirupsen/logrus"
)

// Option configures an Updater.
type Option func(*Updater)

// WithName sets the name used in log fields, e.g. "rom" or "gapps".
func WithName(name string) Option {
	return func(u *Updater) {
		u.name = name
	}
}

// WithTransport sets the transport used to reach catalogs.
func WithTransport(t Transport) Option {
	return func(u *Updater) {
		u.transport = t
	}
}

// WithBaseline sets the provider of the installed device and version.
func WithBaseline(b BaselineProvider) Option {
	return func(u *Updater) {
		u.baseline = b
	}
}

// WithSettings sets the flavor and schedule settings.
func WithSettings(s Settings) Option {
	return func(u *Updater) {
		u.settings = s
	}
}

// WithNotifier sets the sink for scheduled results and interactive errors.
func WithNotifier(n Notifier) Option {
	return func(u *Updater) {
		u.notifier = n
	}
}

// WithDispatcher sets where listener callbacks run.
func WithDispatcher(d Dispatcher) Option {
	return func(u *Updater) {
		u.dispatcher = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(u *Updater) {
		if l != nil {
			u.log = l
		}
	}
}

// WithScheduled marks checks of this Updater as started by a schedule
// rather than by the user.
func WithScheduled(scheduled bool) Option {
	return func(u *Updater) {
		u.scheduled = scheduled
	}
}

// WithErrorPrefix sets the text of interactive error messages. Catalog
// error messages are appended after a colon.
func WithErrorPrefix(prefix string) Option {
	return func(u *Updater) {
		if prefix != "" {
			u.errorPrefix = prefix
		}
	}
}
