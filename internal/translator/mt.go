package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/placeholder"
)

// mtInterval paces per-string calls to machine translation backends.
const mtInterval = 5 * time.Millisecond

func newMTLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(mtInterval), 1)
}

type translateOneFunc func(ctx context.Context, text string) (string, error)

// translateEach issues one call per string, in request order. Control codes
// are shielded from the engine and blank strings are passed through without
// a call. The first failure aborts the walk.
func translateEach(ctx context.Context, limiter *rate.Limiter, bundle internal.TextBundle, translate translateOneFunc) (internal.TranslationResponse, error) {
	resp := internal.TranslationResponse{Files: make([]internal.TranslatedFile, 0, len(bundle.Files))}

	for _, f := range bundle.Files {
		tf := internal.TranslatedFile{ID: f.ID, Blocks: make([]internal.TranslatedBlock, 0, len(f.Blocks))}
		for _, blk := range f.Blocks {
			out := make([]string, len(blk.Strings))
			for i, s := range blk.Strings {
				if strings.TrimSpace(s) == "" {
					out[i] = s
					continue
				}
				protected, markers := placeholder.Protect(s)
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return internal.TranslationResponse{}, err
					}
				}
				translated, err := translate(ctx, protected)
				if err != nil {
					return internal.TranslationResponse{}, fmt.Errorf("%s/%s[%d]: %w", f.ID, blk.ID, i, err)
				}
				out[i] = placeholder.RestoreAll(translated, markers)
			}
			tf.Blocks = append(tf.Blocks, internal.TranslatedBlock{ID: blk.ID, Strings: out})
		}
		resp.Files = append(resp.Files, tf)
	}

	return resp, nil
}
