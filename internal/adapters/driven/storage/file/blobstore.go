package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// BlobStore is a filesystem implementation of driven.BlobStore.
type BlobStore struct {
	root   string
	writer *AtomicWriter
}

// Option configures a BlobStore.
type Option func(*BlobStore)

// WithWriter replaces the atomic writer, e.g. to inject faults in tests.
func WithWriter(w *AtomicWriter) Option {
	return func(s *BlobStore) { s.writer = w }
}

// NewBlobStore creates the storage root and namespace directories if absent.
// Existing content is never removed.
func NewBlobStore(root string, opts ...Option) (*BlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	for _, ns := range []domain.Namespace{domain.NamespacePolicy, domain.NamespaceReport} {
		dir := filepath.Join(root, domain.NamespaceRoot(ns))
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, domain.IOError("creating "+domain.NamespaceRoot(ns), err)
		}
	}

	s := &BlobStore{
		root:   root,
		writer: NewAtomicWriter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the storage root.
func (s *BlobStore) Root() string {
	return s.root
}

// Put atomically replaces the file at loc.
func (s *BlobStore) Put(ctx context.Context, loc domain.Location, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path(loc)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return domain.IOError("creating record directory", err)
	}
	return s.writer.WriteFile(path, data, filePerm)
}

// Get reads the file at loc.
func (s *BlobStore) Get(_ context.Context, loc domain.Location) ([]byte, error) {
	data, err := os.ReadFile(s.path(loc))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.IOError("reading "+loc.Path(), err)
	}
	return data, nil
}

// Exists reports whether a regular file is stored at loc.
func (s *BlobStore) Exists(_ context.Context, loc domain.Location) (bool, error) {
	info, err := os.Stat(s.path(loc))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, domain.IOError("checking "+loc.Path(), err)
	}
	return info.Mode().IsRegular(), nil
}

// List returns the sorted identifiers of every record in ns. Entries that
// are not valid identifiers, such as temporary files, are skipped.
func (s *BlobStore) List(_ context.Context, ns domain.Namespace) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, domain.NamespaceRoot(ns)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, domain.IOError("listing "+ns.String(), err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		id, ok := recordID(ns, entry)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteRecord removes the record directory or report file. A policy
// directory holding no artifact counts as absent and is left in place.
func (s *BlobStore) DeleteRecord(ctx context.Context, ns domain.Namespace, id string) error {
	kind := domain.ArtifactSource
	if ns == domain.NamespaceReport {
		kind = domain.ArtifactReport
	}
	loc, err := domain.Resolve(ns, id, kind)
	if err != nil {
		return err
	}

	path := filepath.Join(s.root, filepath.FromSlash(loc.RecordPath()))
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrNotFound
		}
		return domain.IOError("checking record", err)
	}
	if ns == domain.NamespacePolicy {
		found, err := s.hasArtifact(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNotFound
		}
	}
	if err := os.RemoveAll(path); err != nil {
		return domain.IOError("removing record", err)
	}
	return nil
}

func (s *BlobStore) hasArtifact(ctx context.Context, id string) (bool, error) {
	for _, kind := range domain.PolicyArtifacts() {
		loc, err := domain.Resolve(domain.NamespacePolicy, id, kind)
		if err != nil {
			return false, err
		}
		ok, err := s.Exists(ctx, loc)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}

func (s *BlobStore) path(loc domain.Location) string {
	return filepath.Join(s.root, filepath.FromSlash(loc.Path()))
}

func recordID(ns domain.Namespace, entry os.DirEntry) (string, bool) {
	name := entry.Name()
	if ns == domain.NamespaceReport {
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			return "", false
		}
		name = strings.TrimSuffix(name, ".json")
	} else if !entry.IsDir() {
		return "", false
	}
	return name, domain.ValidateIdentifier(name) == nil
}
