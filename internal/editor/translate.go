package editor

import (
	"context"
	"fmt"

	"github.com/mgpai22/kashi/internal/lyric"
	"github.com/mgpai22/kashi/internal/translate"
)

type TranslateOptions struct {
	Concurrency int
	// Overlay keeps the original line under the translation.
	Overlay bool
}

// Translate sends every line to t and writes the results back by id.
// Lines deleted while the request was in flight are skipped. It returns
// the number of lines changed.
func (s *Session) Translate(ctx context.Context, t translate.Translator, opts TranslateOptions) (int, error) {
	entries := s.store.All()
	if len(entries) == 0 {
		return 0, ErrNoEntries
	}

	items := make([]translate.TranslationItem, len(entries))
	for i, e := range entries {
		items[i] = translate.TranslationItem{ID: e.ID, Text: e.Text}
	}

	s.logger.Infow("Translating lyrics",
		"items", len(items),
		"concurrency", opts.Concurrency,
	)

	results, err := translate.Run(ctx, t, items, opts.Concurrency)
	if err != nil {
		return 0, fmt.Errorf("translation failed: %w", err)
	}

	changed := 0
	for _, r := range results {
		cur, ok := s.store.Get(r.ID)
		if !ok {
			s.logger.Warnw("Skipping translation for missing lyric", "id", r.ID)
			continue
		}

		text := r.Text
		if opts.Overlay {
			text = r.Text + "\n" + cur.Text
		}
		if s.store.Update(r.ID, lyric.Patch{Text: &text}) {
			changed++
		}
	}

	s.logger.Infow("Translation complete",
		"results", len(results),
		"changed", changed,
	)
	return changed, nil
}
