// Package driving defines the interfaces that infrastructure calls INTO core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI and any future API adapters call these interfaces, and core
// services implement them.
//
// # Interfaces
//
//   - PolicyStore: Policy document artifacts (ingestion and query collaborators)
//   - ReportStore: Compliance reports (compliance collaborator)
//   - IngestionService: Ordered multi-artifact ingestion
//   - RetrievalService: Vector retrieval over stored artifacts
//   - SettingsService: Application settings
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driven port
package driving
