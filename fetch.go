package slotfeed

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// fetchAll runs one fetch unit per eligible slot, on up to FetchWorkers
// goroutines. Results come back indexed by listing position so delivery
// order never depends on which worker finished first. The first permanent
// failure cancels the remaining units and aborts the cycle.
func (p *Pipeline) fetchAll(ctx context.Context, eligible []Slot) ([]FetchResult, error) {
	if len(eligible) == 0 {
		return nil, nil
	}

	group, ctx := errgroup.WithContext(ctx)

	// Channel of slot indexes for workers to claim
	indexCh := make(chan int, len(eligible))
	for i := range eligible {
		indexCh <- i
	}
	close(indexCh)

	results := make([]FetchResult, len(eligible))

	numWorkers := min(p.resolveFetchWorkers(), len(eligible))
	for range numWorkers {
		group.Go(func() error {
			for i := range indexCh {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				fr, err := p.fetchSlot(ctx, eligible[i])
				if err != nil {
					return err
				}
				results[i] = fr
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchSlot is one unit of work: a retried fetch of a single slot, decoded
// into its lines. The connector stream is closed on every exit path.
//
// Retry exhaustion and decode failures both come back as *SlotError; decode
// failures are never retried since a truncated or corrupt stream will not
// repair itself on a second read.
func (p *Pipeline) fetchSlot(ctx context.Context, s Slot) (FetchResult, error) {
	rc, err := retry(ctx, StageFetch, p.resolveMaxRetries(), p.resolveRetryBackoff(), p.onRetry, func(ctx context.Context) (io.ReadCloser, error) {
		return p.connector.Fetch(ctx, s)
	})
	if err != nil {
		return FetchResult{}, &SlotError{Slot: s, Stage: StageFetch, Err: err}
	}
	defer rc.Close()

	// Lines are materialized here because nothing may reach the sink until
	// every slot in the cycle has decoded cleanly.
	cr := &countingReader{r: rc}
	fr := FetchResult{Slot: s}
	for line, err := range p.dec.Lines(cr) {
		if err != nil {
			return FetchResult{}, &SlotError{Slot: s, Stage: StageDecode, Err: err}
		}
		fr.Lines = append(fr.Lines, line)
	}

	fr.Bytes = cr.n
	fr.Records = int64(len(fr.Lines))
	p.stats.incFetched(1)
	return fr, nil
}

// countingReader counts raw bytes consumed from the connector stream,
// before any gzip or charset layer.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
