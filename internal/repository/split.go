package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"skyscraper-platform/internal/models"
)

// SplitDocument reads one combined {"City": [towers...]} document, optionally
// wrapped in {"data": ...}, and stores a separate document per city stamped
// with capturedAt. It returns the number of documents written.
func SplitDocument(ctx context.Context, r io.Reader, store DocumentStore, capturedAt time.Time) (int, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, fmt.Errorf("failed to decode combined document: %w", err)
	}

	var combined map[string][]models.RawTower
	if wrapped, ok := raw["data"]; ok {
		if err := json.Unmarshal(wrapped, &combined); err != nil {
			return 0, fmt.Errorf("failed to decode data section: %w", err)
		}
	} else {
		combined = make(map[string][]models.RawTower, len(raw))
		for name, towers := range raw {
			var list []models.RawTower
			if err := json.Unmarshal(towers, &list); err != nil {
				return 0, fmt.Errorf("failed to decode towers of %s: %w", name, err)
			}
			combined[name] = list
		}
	}

	names := make([]string, 0, len(combined))
	for name := range combined {
		names = append(names, name)
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		if err := store.Save(ctx, name, models.NewCityDocument(combined[name], capturedAt)); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", name, err)
		}
		written++
	}
	return written, nil
}

// TowerProperties returns the sorted union of raw record keys across every stored document
func TowerProperties(ctx context.Context, store DocumentStore) ([]string, error) {
	snap, err := takeSnapshot(ctx, store)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, name := range snap.Names() {
		doc, err := snap.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, tower := range doc.Towers {
			for key := range tower {
				seen[key] = struct{}{}
			}
		}
	}

	properties := make([]string, 0, len(seen))
	for key := range seen {
		properties = append(properties, key)
	}
	sort.Strings(properties)
	return properties, nil
}
