// Package archive packs a finished batch into a single zip: one PDF per
// successful recipient plus a manifest describing the failures.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"

	"certbatch/internal/batch"
	"certbatch/internal/errs"
)

// ManifestName is the archive entry holding the batch outcome summary.
const ManifestName = "manifest.json"

// Failure is one recipient the batch could not render.
type Failure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Manifest summarizes the batch inside the archive, so the zip is
// self-describing even after the batch record is gone.
type Manifest struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Build packs the batch result into zip bytes. Per-recipient failures are
// listed in the manifest, never an error here; only faults in assembling
// the container itself fail, and those fail the whole archive since a
// partial zip is not meaningful.
func Build(res *batch.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	manifest := Manifest{
		Attempted: res.Attempted,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}

	for _, r := range res.Results {
		if r.Err != nil {
			manifest.Failures = append(manifest.Failures, Failure{
				Row:    r.Row,
				Reason: errs.FormatUserError(r.Err),
			})
			continue
		}
		f, err := w.Create(r.Filename)
		if err != nil {
			return nil, errs.Wrap(errs.CodePackaging, "could not assemble the archive", err)
		}
		if _, err := f.Write(r.Bytes); err != nil {
			return nil, errs.Wrap(errs.CodePackaging, "could not assemble the archive", err)
		}
	}

	mf, err := w.Create(ManifestName)
	if err != nil {
		return nil, errs.Wrap(errs.CodePackaging, "could not assemble the archive", err)
	}
	enc := json.NewEncoder(mf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return nil, errs.Wrap(errs.CodePackaging, "could not assemble the archive", err)
	}

	if err := w.Close(); err != nil {
		return nil, errs.Wrap(errs.CodePackaging, "could not assemble the archive", err)
	}
	return buf.Bytes(), nil
}
