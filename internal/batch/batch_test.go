package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"certbatch/internal/errs"
	"certbatch/internal/render"
	"certbatch/internal/roster"
	"certbatch/internal/schema"
	"certbatch/internal/template"
)

// stubRenderer succeeds or fails per row without touching the PDF engine.
type stubRenderer struct {
	failRows map[int]bool
	block    chan struct{} // when set, renders wait here first

	mu       sync.Mutex
	rendered []int
}

func (s *stubRenderer) Render(cat *template.Catalog, rec roster.Record) (*render.Output, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.rendered = append(s.rendered, rec.Row)
	s.mu.Unlock()
	if s.failRows[rec.Row] {
		return nil, errs.Newf(errs.CodeRender, "row %d failed", rec.Row)
	}
	return &render.Output{
		Bytes:     []byte(fmt.Sprintf("%%PDF-1.3 row %d", rec.Row)),
		FontSizes: map[string]float64{"Recipient Name": 24},
	}, nil
}

func testRecords(n int) []roster.Record {
	records := make([]roster.Record, n)
	for i := range records {
		records[i] = roster.Record{
			Row: i + 2,
			Values: map[schema.Field]string{
				schema.FieldFirstName: fmt.Sprintf("Recipient%d", i),
				schema.FieldLastName:  "Example",
			},
			OutputName: fmt.Sprintf("Recipient%d Example", i),
		}
	}
	return records
}

func TestRunOrdersResultsByRoster(t *testing.T) {
	stub := &stubRenderer{}
	res, err := Orchestrator{Renderer: stub, Workers: 3}.Run(context.Background(), nil, testRecords(10))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Attempted != 10 || res.Succeeded != 10 || res.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d, want 10/10/0", res.Attempted, res.Succeeded, res.Failed)
	}
	for i, r := range res.Results {
		if r.Row != i+2 {
			t.Errorf("Results[%d].Row = %d, want %d", i, r.Row, i+2)
		}
		if r.Filename != fmt.Sprintf("Recipient%d Example.pdf", i) {
			t.Errorf("Results[%d].Filename = %q", i, r.Filename)
		}
	}
}

// A run on a live context must never be mistaken for a cancelled one, no
// matter how the workers and the pool's own teardown interleave.
func TestRunLiveContextNeverReportsCancelled(t *testing.T) {
	for i := 0; i < 50; i++ {
		res, err := Orchestrator{Renderer: &stubRenderer{}, Workers: 4}.Run(context.Background(), nil, testRecords(8))
		if errs.IsCode(err, errs.CodeBatchCancelled) {
			t.Fatalf("run %d: live context reported BATCH_CANCELLED: %v", i, err)
		}
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.Succeeded != 8 {
			t.Fatalf("run %d: succeeded = %d, want 8", i, res.Succeeded)
		}
	}
}

func TestRunToleratesPartialFailure(t *testing.T) {
	stub := &stubRenderer{failRows: map[int]bool{3: true, 7: true}}
	res, err := Orchestrator{Renderer: stub, Workers: 2}.Run(context.Background(), nil, testRecords(8))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 6 || res.Failed != 2 {
		t.Fatalf("succeeded/failed = %d/%d, want 6/2", res.Succeeded, res.Failed)
	}
	for _, r := range res.Results {
		failed := r.Row == 3 || r.Row == 7
		if failed && (r.Err == nil || len(r.Bytes) != 0) {
			t.Errorf("row %d: want recorded error and no bytes", r.Row)
		}
		if !failed && (r.Err != nil || len(r.Bytes) == 0) {
			t.Errorf("row %d: unexpected outcome %v", r.Row, r.Err)
		}
	}
}

// A batch where every recipient fails still completes normally.
func TestRunAllFailuresIsNotAnError(t *testing.T) {
	fail := map[int]bool{}
	for i := 0; i < 4; i++ {
		fail[i+2] = true
	}
	res, err := Orchestrator{Renderer: &stubRenderer{failRows: fail}}.Run(context.Background(), nil, testRecords(4))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded != 0 || res.Failed != 4 {
		t.Fatalf("succeeded/failed = %d/%d, want 0/4", res.Succeeded, res.Failed)
	}
}

func TestRunReportsProgress(t *testing.T) {
	var mu sync.Mutex
	var calls []int
	orch := Orchestrator{
		Renderer: &stubRenderer{},
		Workers:  1,
		OnProgress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != 5 {
				t.Errorf("total = %d, want 5", total)
			}
			calls = append(calls, done)
		},
	}
	if _, err := orch.Run(context.Background(), nil, testRecords(5)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 5 || calls[len(calls)-1] != 5 {
		t.Fatalf("progress calls = %v, want 5 calls ending at 5", calls)
	}
}

func TestRunCancellation(t *testing.T) {
	block := make(chan struct{})
	stub := &stubRenderer{block: block}
	ctx, cancel := context.WithCancel(context.Background())

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := Orchestrator{Renderer: stub, Workers: 2}.Run(ctx, nil, testRecords(20))
		ch <- outcome{res, err}
	}()

	cancel()
	close(block)

	got := <-ch
	if !errs.IsCode(got.err, errs.CodeBatchCancelled) {
		t.Fatalf("err = %v, want BATCH_CANCELLED", got.err)
	}
	if got.res != nil {
		t.Error("cancelled batch returned a partial result")
	}
}
