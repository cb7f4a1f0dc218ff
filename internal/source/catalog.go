package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lexitect/lexitect/internal/model"
)

// Catalog is the ordered set of external sources and the fallback
// protocol over them. A catalog is shared by all workers of a run; the
// per-source cooldown is the only state it mutates.
type Catalog struct {
	sources  []Source
	cooldown *Cooldown
}

// NewCatalog builds a catalog from sources, sorted into ascending rank
// order. order, when non-empty, restricts and reorders the catalog by
// source name (the sourceOrder configuration override); unknown names are
// rejected so a typo cannot silently drop a source.
func NewCatalog(sources []Source, order []string, cooldown time.Duration) (*Catalog, error) {
	selected := make([]Source, 0, len(sources))

	if len(order) == 0 {
		selected = append(selected, sources...)
		sort.Slice(selected, func(i, j int) bool { return selected[i].Rank() < selected[j].Rank() })
	} else {
		byName := make(map[string]Source, len(sources))
		for _, s := range sources {
			byName[strings.ToLower(s.Name())] = s
		}
		for _, name := range order {
			s, ok := byName[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("unknown source in source order: %q", name)
			}
			selected = append(selected, s)
		}
	}

	return &Catalog{
		sources:  selected,
		cooldown: NewCooldown(cooldown),
	}, nil
}

// Sources returns the catalog's sources in lookup order.
func (c *Catalog) Sources() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Lookup runs the fetch-with-fallback protocol for one definition:
// sources strictly in catalog order, each queried with the term name and
// then its aliases; the first non-empty success wins and lookup stops.
// Individual source failures advance the fallback. Exhaustion returns
// (nil, nil); no external content is not an error. The only error is
// context cancellation.
func (c *Catalog) Lookup(ctx context.Context, def model.Definition) (*model.ExternalCandidate, error) {
	terms := def.SearchTerms()
	if len(terms) == 0 {
		return nil, nil
	}

	for _, src := range c.sources {
		for _, term := range terms {
			if err := c.cooldown.Wait(ctx, src.Name()); err != nil {
				return nil, err
			}

			content, err := src.Lookup(ctx, term)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				// Not-found and transient failures both fall through;
				// for a not-found, the remaining aliases may still hit.
				continue
			}
			if content == nil || content.Text == "" {
				continue
			}

			return &model.ExternalCandidate{
				SourceName:     src.Name(),
				SourcePriority: src.Rank(),
				RetrievedText:  content.Text,
				Confidence:     src.Confidence(),
				URL:            content.URL,
				RetrievedAt:    time.Now().UTC(),
			}, nil
		}
	}

	return nil, nil
}
