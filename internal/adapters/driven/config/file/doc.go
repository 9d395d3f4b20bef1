// Package file provides the TOML configuration store.
//
// Settings are addressed by dotted keys ("storage.root") and written as
// nested TOML tables:
//
//	[storage]
//	root = "/var/lib/policystore"
//	backend = "sqlite"
//
// The file is replaced atomically on every change.
package file
