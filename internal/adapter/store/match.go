package store

import (
	"fmt"
	"strings"

	"github.com/xigt/sleipnir/internal/domain"
	"github.com/xigt/sleipnir/internal/igt"
)

// notFoundIgts reports every missing ID of a request at once.
func notFoundIgts(missing []string) error {
	return fmt.Errorf("%w: requested IGTs not found: %s", domain.ErrNotFound, strings.Join(missing, ", "))
}

// filterByMatches applies path expressions as a conjunction: a record is
// kept only when every expression selects something in it. Matched items
// are recorded on kept records as QueryResult metadata blocks.
func filterByMatches(igts []*igt.Igt, matches []string) ([]*igt.Igt, error) {
	if len(matches) == 0 {
		return igts, nil
	}
	kept := make([]*igt.Igt, 0, len(igts))
	for _, ig := range igts {
		matched := true
		for _, expr := range matches {
			nodes, err := igt.FindAll(ig, expr)
			if err != nil {
				return nil, fmt.Errorf("%w: match expression %q: %v", domain.ErrValidation, expr, err)
			}
			if len(nodes) == 0 {
				matched = false
				continue
			}
			attachQueryResult(ig, expr, nodes)
		}
		if matched {
			kept = append(kept, ig)
		}
	}
	return kept, nil
}

func attachQueryResult(ig *igt.Igt, expr string, nodes []*igt.Node) {
	md := igt.Metadata{
		Type:       "QueryResult",
		Attributes: map[string]string{"queryType": "path", "query": expr},
	}
	for _, n := range nodes {
		if n.Kind != "item" {
			continue
		}
		md.Metas = append(md.Metas, igt.Meta{
			Attributes: map[string]string{"tier": n.TierID, "item": n.ID},
		})
	}
	ig.Metadata = append(ig.Metadata, md)
}

// validateCorpus enforces the all-or-nothing precondition of AddCorpus:
// every record carries an ID and no ID repeats.
func validateCorpus(xc *igt.Corpus) error {
	seen := make(map[string]bool, len(xc.Igts))
	for _, ig := range xc.Igts {
		if ig.ID == "" {
			return fmt.Errorf("%w: every IGT must have an ID", domain.ErrValidation)
		}
		if seen[ig.ID] {
			return fmt.Errorf("%w: duplicate IGT ID %q", domain.ErrConflict, ig.ID)
		}
		seen[ig.ID] = true
	}
	return nil
}
