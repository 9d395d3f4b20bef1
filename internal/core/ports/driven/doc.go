// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - BlobStore: Artifact persistence (filesystem, SQLite, memory)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IndexCodec: Builds and (de)serialises vector indexes. Without it,
//     ingestion only accepts pre-serialised index blobs and retrieval is disabled.
//   - ChangeFeed: Streams artifact changes. Only the filesystem backend has one.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
