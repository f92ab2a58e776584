package main

import "gofocus/settings"

var persistDomains = []settings.DomainID{settings.DomainPersistent, settings.DomainVariable, settings.DomainBoard}

// persistWatch remembers the last reported write failure per domain so a
// failure retried on every tick is logged once
type persistWatch struct {
	last [3]string
}

// changed reports whether err differs from the last error seen for d.
// Errors are compared by message since each retry wraps a fresh error.
func (w *persistWatch) changed(d settings.DomainID, err error) bool {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if w.last[d] == msg {
		return false
	}
	w.last[d] = msg
	return true
}
