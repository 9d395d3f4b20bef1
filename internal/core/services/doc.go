// Package services implements the driving port interfaces.
// Services contain the core storage rules and orchestrate
// calls to driven ports (adapters).
//
// The artifact store is the only component that mutates the storage
// root. Ingestion and retrieval are collaborators built on top of it
// and go through its public operations like any other caller.
package services
