// Package flaw defines the vulnerability record tracked by the service and
// its SQLite-backed store. A Flaw exposes its attributes to the workflow
// engine through the workflow.Record contract and carries a stored
// classification that is reconciled against the computed one whenever the
// record changes.
package flaw
