package updater

import (
	"github.com/pa-ota/catalog/internal/core"
)

// Listener observes the lifecycle of checks.
type Listener interface {
	OnCheckStart()
	// OnCheckFinish receives the packages found, newest first. The list is
	// empty when nothing newer was found or the check failed.
	OnCheckFinish(pkgs []core.Package)
	// OnCheckError follows OnCheckFinish when the check ended on a failure.
	// err is a *core.SourceError or a *core.TransportError.
	OnCheckError(err error)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
// Register a pointer so that it can be removed again.
type ListenerFuncs struct {
	Start  func()
	Finish func(pkgs []core.Package)
	Error  func(err error)
}

func (l *ListenerFuncs) OnCheckStart() {
	if l.Start != nil {
		l.Start()
	}
}

func (l *ListenerFuncs) OnCheckFinish(pkgs []core.Package) {
	if l.Finish != nil {
		l.Finish(pkgs)
	}
}

func (l *ListenerFuncs) OnCheckError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}
