// Package matcher runs a trapdoor against a collection of stored ciphertexts.
package matcher

import (
	"context"
	"sync"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/AUKUS561/LSABEMA/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of one scan. Results are unordered.
type Report struct {
	Scanned int
	Matched int
	Failed  int
	Results []*LSABE.PartialCiphertext
}

// Matcher holds the scheme instance and the worker bound.
type Matcher struct {
	lsabe   *LSABE.LSABE
	workers int
	log     *zap.Logger
}

func New(lsabe *LSABE.LSABE, workers int, log *zap.Logger) *Matcher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Matcher{lsabe: lsabe, workers: workers, log: log}
}

// Match searches one serialized ciphertext and transforms it on a hit.
func (m *Matcher) Match(raw []byte, td *LSABE.Trapdoor, tk *LSABE.TransformKey) (*LSABE.PartialCiphertext, error) {
	ct, err := LSABE.UnmarshalCiphertext(raw)
	if err != nil {
		return nil, err
	}
	ok, err := m.lsabe.Search(ct, td)
	if err != nil || !ok {
		return nil, err
	}
	out, err := m.lsabe.Transform(ct, tk)
	if err != nil {
		return nil, errors.Wrap(err, "transform")
	}
	return out, nil
}

// Scan matches every item. A failing item is counted and skipped.
func (m *Matcher) Scan(ctx context.Context, items map[string][]byte, td *LSABE.Trapdoor, tk *LSABE.TransformKey) (*Report, error) {
	var (
		mu     sync.Mutex
		report = &Report{Results: make([]*LSABE.PartialCiphertext, 0)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for id, raw := range items {
		id, raw := id, raw
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := m.Match(raw, td, tk)
			mu.Lock()
			defer mu.Unlock()
			report.Scanned++
			switch {
			case err != nil:
				report.Failed++
				m.log.Sugar().Warnf("[%s] skip ciphertext: %v", id, err)
			case out != nil:
				report.Matched++
				report.Results = append(report.Results, out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	// gctx is always done once Wait returns
	return report, ctx.Err()
}
