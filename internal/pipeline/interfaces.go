package pipeline

import "context"

// OCRClient analyzes one receipt image and returns the raw field tree.
type OCRClient interface {
	Analyze(ctx context.Context, imagePath string) (map[string]any, error)
}

// ItemTagger classifies receipt items. The input is the items payload JSON,
// the output is the model's reply text with markdown fencing stripped.
type ItemTagger interface {
	TagItems(ctx context.Context, itemsJSON string) (string, error)
}
