package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"certbatch/internal/batch"
	"certbatch/internal/errs"
)

func TestBuildRoundTrip(t *testing.T) {
	res := &batch.Result{
		Attempted: 3,
		Succeeded: 2,
		Failed:    1,
		Results: []batch.GenerationResult{
			{Row: 2, Filename: "Jane Doe.pdf", Bytes: []byte("%PDF-1.3 jane")},
			{Row: 3, Filename: "John Smith.pdf", Err: errs.New(errs.CodeRender, "font rejected the value")},
			{Row: 4, Filename: "John Smith_1.pdf", Bytes: []byte("%PDF-1.3 smith")},
		},
	}

	data, err := Build(res)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = body
	}

	require.Len(t, entries, 3)
	require.Equal(t, []byte("%PDF-1.3 jane"), entries["Jane Doe.pdf"])
	require.Equal(t, []byte("%PDF-1.3 smith"), entries["John Smith_1.pdf"])
	require.NotContains(t, entries, "John Smith.pdf")

	var manifest Manifest
	require.NoError(t, json.Unmarshal(entries[ManifestName], &manifest))
	require.Equal(t, 3, manifest.Attempted)
	require.Equal(t, 2, manifest.Succeeded)
	require.Equal(t, 1, manifest.Failed)
	require.Len(t, manifest.Failures, 1)
	require.Equal(t, 3, manifest.Failures[0].Row)
	require.NotEmpty(t, manifest.Failures[0].Reason)
}

// A batch with zero successes still packages: the archive carries only the
// manifest.
func TestBuildAllFailed(t *testing.T) {
	res := &batch.Result{
		Attempted: 1,
		Failed:    1,
		Results: []batch.GenerationResult{
			{Row: 2, Filename: "Jane Doe.pdf", Err: errs.New(errs.CodeRender, "boom")},
		},
	}

	data, err := Build(res)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	require.Equal(t, ManifestName, zr.File[0].Name)
}

func TestBuildEmptyManifestOmitsFailures(t *testing.T) {
	data, err := Build(&batch.Result{
		Attempted: 1,
		Succeeded: 1,
		Results:   []batch.GenerationResult{{Row: 2, Filename: "Jane Doe.pdf", Bytes: []byte("%PDF-")}},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NotContains(t, string(body), "failures")
	}
}
