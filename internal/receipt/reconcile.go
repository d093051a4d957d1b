package receipt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kadoya0703/kakeibo/internal/logger"
)

// taggedItem is one entry of the tagging collaborator's reply.
type taggedItem struct {
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	Reason string `json:"reason"`
}

type tagResponse struct {
	Items []taggedItem `json:"items"`
}

// Reconcile merges a tagging response onto the items in place. The response
// is untrusted: it must parse, carry an items array, and match the input
// count exactly. Any violation resolves to the fail-safe (every item tagged
// unknown with an empty reason) and Reconcile never fails past its own
// boundary.
//
// After a successful merge no item is left untagged: entries the response
// did not cover (names the model changed or dropped) are set to unknown
// explicitly, so storage never sees the untagged state.
func Reconcile(ctx context.Context, items []*Item, responseText string) {
	log := logger.FromContext(ctx)

	if err := applyTags(ctx, items, responseText); err != nil {
		log.Error().Err(err).Msg("item tagging failed, falling back to unknown")
		for _, item := range items {
			item.Tag = CategoryUnknown
			item.TagReason = ""
		}
	}
}

func applyTags(ctx context.Context, items []*Item, responseText string) error {
	log := logger.FromContext(ctx)

	var resp tagResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		return fmt.Errorf("parse tagging response: %w", err)
	}
	if resp.Items == nil {
		return fmt.Errorf("tagging response has no items array")
	}
	if len(resp.Items) != len(items) {
		return fmt.Errorf("item count mismatch: input=%d, output=%d", len(items), len(resp.Items))
	}

	// Last write wins on duplicate names, same as the lookup the prompt is
	// built from.
	byName := make(map[string]*Item, len(items))
	for _, item := range items {
		byName[item.Name] = item
	}

	for _, tagged := range resp.Items {
		item, ok := byName[tagged.Name]
		if !ok {
			log.Error().Str("name", tagged.Name).Msg("tagging response names an unknown item")
			continue
		}

		cat, known := CategoryFromAILabel(tagged.Tag)
		if !known {
			log.Error().Str("tag", tagged.Tag).Msg("unrecognized tag label")
		}
		item.Tag = cat
		item.TagReason = tagged.Reason
	}

	// Items the response skipped stay classifiable only as unknown.
	for _, item := range items {
		if !item.Tag.Valid() {
			item.Tag = CategoryUnknown
			item.TagReason = ""
		}
	}

	return nil
}
