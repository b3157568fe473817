package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
)

// resolveWorkItem accepts a full ID or a unique ID prefix, as printed by
// "item list".
func resolveWorkItem(ctx context.Context, app *App, input string) (*domain.WorkItem, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("work item ID is required")
	}

	if w, err := app.WorkItems.GetByID(ctx, input); err == nil {
		return w, nil
	}

	items, err := app.WorkItems.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var matches []*domain.WorkItem
	for _, w := range items {
		if strings.HasPrefix(w.ID, input) {
			matches = append(matches, w)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("work item %q: %w", input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("work item prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
