// Package file stores artifacts as plain files under a storage root:
//
//	<root>/policies/<id>/source.pdf
//	<root>/policies/<id>/chunks.json
//	<root>/policies/<id>/metadata.json
//	<root>/policies/<id>/index.faiss
//	<root>/accessibility_reports/<id>.json
//
// Every write goes to a temporary file in the target directory, is synced,
// and is renamed over the final name, so a reader sees either the previous
// payload or the new one and never a partial file. Temporary files start
// with a dot and are ignored by listings and the watcher.
package file
