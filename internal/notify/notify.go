// Package notify reports check results through a logger.
package notify

import (
	"github.com/dustin/go-humanize"
	"github.com/pa-ota/catalog/internal/core"
	"github.com/sirupsen/logrus"
)

// Log delivers notifications as log entries.
type Log struct {
	log logrus.FieldLogger
}

// New returns a notifier writing to l, or to the standard logger when l
// is nil.
func New(l logrus.FieldLogger) *Log {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Log{log: l}
}

// NotifyPackagesAvailable logs the newest package found by a scheduled
// check.
func (n *Log) NotifyPackagesAvailable(pkgs []core.Package) {
	newest, ok := core.Newest(pkgs)
	if !ok {
		return
	}
	n.log.WithFields(logrus.Fields{
		"packages": len(pkgs),
		"filename": newest.Filename,
		"version":  newest.Version.DisplayString(),
		"size":     humanize.Bytes(uint64(newest.Size)),
		"url":      newest.URL,
	}).Info("Updates available")
}

// NotifyInteractiveError logs the failure of a user started check.
func (n *Log) NotifyInteractiveError(message string) {
	n.log.Error(message)
}
