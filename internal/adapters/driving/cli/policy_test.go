package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const testSegmentsJSON = `[
  {"chunk_id": "c0", "page": 1, "chunk_index": 0, "text": "Staff must lock screens.", "offset": {"start": 0, "end": 24}},
  {"chunk_id": "c1", "page": 2, "chunk_index": 1, "text": "Visitors are escorted.", "offset": {"start": 25, "end": 47}}
]`

func TestPolicyCmd_Use(t *testing.T) {
	assert.Equal(t, "policy", policyCmd.Use)
	assert.Contains(t, policyCmd.Long, "write-once")
}

func TestPolicyPutSource_FromStdin(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "%PDF-1.7 test", "policy", "put-source", "policy-1", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "policies/policy-1/source.pdf")

	data, err := ts.store.ReadSource(context.Background(), "policy-1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(data))
}

func TestPolicyPutSource_WriteOnce(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "first", "policy", "put-source", "policy-1", "-")
	require.NoError(t, err)

	_, err = execute(t, "second", "policy", "put-source", "policy-1", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, ExitConflict, ExitCode(err))
}

func TestPolicyPutSource_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "policy", "put-source", "policy-1", filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestPolicyPutSegments_AndShow(t *testing.T) {
	ts := setupTestServices(t)
	path := writeTempFile(t, "chunks.json", testSegmentsJSON)

	out, err := execute(t, "", "policy", "put-segments", "policy-1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 segments")

	segments, err := ts.store.ReadSegments(context.Background(), "policy-1")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "c1", segments[1].ID)

	out, err = execute(t, "", "policy", "segments", "policy-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Staff must lock screens.")
	assert.Contains(t, out, "page 2")
}

func TestPolicySegments_JSON(t *testing.T) {
	setupTestServices(t)
	path := writeTempFile(t, "chunks.json", testSegmentsJSON)
	_, err := execute(t, "", "policy", "put-segments", "policy-1", path)
	require.NoError(t, err)

	out, err := execute(t, "", "policy", "segments", "policy-1", "--json")
	require.NoError(t, err)

	var segments []domain.Segment
	require.NoError(t, json.Unmarshal([]byte(out), &segments))
	assert.Len(t, segments, 2)
}

func TestPolicyPutSegments_InvalidJSON(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "{not json", "policy", "put-segments", "policy-1", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestPolicyPutMetadata_AndShow(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, `{"embedding_model": "text-embed-3", "pages": 4}`, "policy", "put-metadata", "policy-1", "-")
	require.NoError(t, err)

	out, err := execute(t, "", "policy", "metadata", "policy-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"embedding_model": "text-embed-3"`)
}

func TestPolicyPutIndex_RequiresSegments(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index-bytes", "policy", "put-index", "policy-1", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Contains(t, Guidance(err), "write the segments before the index")
	assert.Contains(t, Guidance(err), "re-ingest under a new identifier")
}

func TestPolicyIndex_ToFile(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, err := ts.store.WriteSegments(ctx, "policy-1", []domain.Segment{{ID: "c0", Text: "x"}})
	require.NoError(t, err)
	_, err = ts.store.WriteIndex(ctx, "policy-1", []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "index.faiss")
	out, err := execute(t, "", "policy", "index", "policy-1", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3 bytes")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, data)
}

func TestPolicySource_ToStdout(t *testing.T) {
	ts := setupTestServices(t)
	_, err := ts.store.WriteSource(context.Background(), "policy-1", []byte("%PDF"))
	require.NoError(t, err)

	out, err := execute(t, "", "policy", "source", "policy-1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", out)
}

func TestPolicySource_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "policy", "source", "policy-absent")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

func TestPolicyStatus(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, err := ts.store.WriteSource(ctx, "policy-1", []byte("%PDF"))
	require.NoError(t, err)

	out, err := execute(t, "", "policy", "status", "policy-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Policy policy-1")
	assert.Contains(t, out, "present")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "Ingestion incomplete.")

	out, err = execute(t, "", "policy", "status", "policy-absent")
	require.NoError(t, err)
	assert.Contains(t, out, "No such policy.")
}

func TestPolicyStatus_InvalidIdentifier(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "policy", "status", "../etc")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidIdentifier, ExitCode(err))
}

func TestPolicyList(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()

	out, err := execute(t, "", "policy", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No policies found.")

	_, err = ts.store.WriteMetadata(ctx, "policy-1", domain.Metadata{"pages": 3, "embedding_model": "m1"})
	require.NoError(t, err)
	_, err = ts.store.WriteSource(ctx, "policy-2", []byte("mid-ingestion"))
	require.NoError(t, err)

	out, err = execute(t, "", "policy", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "policy-1")
	assert.Contains(t, out, "pages=3")
	assert.NotContains(t, out, "policy-2")
}

func TestPolicyList_JSON(t *testing.T) {
	ts := setupTestServices(t)
	_, err := ts.store.WriteMetadata(context.Background(), "policy-1", domain.Metadata{"chunks": 12})
	require.NoError(t, err)

	out, err := execute(t, "", "policy", "list", "--json")
	require.NoError(t, err)

	var summaries []domain.PolicySummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 12, summaries[0].Chunks)
	assert.Equal(t, "unknown", summaries[0].EmbeddingModel)
}

func TestPolicyDelete(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	_, err := ts.store.WriteSource(ctx, "policy-1", []byte("%PDF"))
	require.NoError(t, err)

	_, err = execute(t, "", "policy", "delete", "policy-1")
	assert.EqualError(t, err, "refusing to delete without --yes")

	out, err := execute(t, "", "policy", "delete", "policy-1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted policy policy-1")
	assert.Equal(t, 0, ts.blobs.Len())

	// A deleted identifier can be reused.
	_, err = execute(t, "again", "policy", "put-source", "policy-1", "-")
	assert.NoError(t, err)
}

func TestPolicyNewID(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "policy", "new-id")
	require.NoError(t, err)
	assert.Equal(t, "policy-test1\n", out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "żół...", truncate("żółwie", 3))
}
