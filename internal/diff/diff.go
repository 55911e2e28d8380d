package diff

import (
	"maps"
	"slices"

	"github.com/krissolling/delli-data/internal/model"
)

// Compare diffs two snapshots keyed by product ID.
//
// Output order: all new products by ascending ID, then all removed
// products by ID, then per-product field changes in ID order. Within
// one product, changes emit as price, availability, then sale.
func Compare(old, new map[int64]model.Product) []model.Change {
	var changes []model.Change

	newIDs := slices.Sorted(maps.Keys(new))
	oldIDs := slices.Sorted(maps.Keys(old))

	for _, id := range newIDs {
		if _, ok := old[id]; ok {
			continue
		}
		p := new[id]
		changes = append(changes, model.Change{
			ProductID: id,
			Handle:    p.Handle,
			Title:     p.Title,
			Vendor:    p.Vendor,
			Type:      model.ChangeNew,
			Details: model.ChangeDetails{
				PriceCents: model.Int64Ptr(p.PriceCents),
				Available:  model.BoolPtr(p.Available),
			},
		})
	}

	for _, id := range oldIDs {
		if _, ok := new[id]; ok {
			continue
		}
		p := old[id]
		changes = append(changes, model.Change{
			ProductID: id,
			Handle:    p.Handle,
			Title:     p.Title,
			Vendor:    p.Vendor,
			Type:      model.ChangeRemoved,
		})
	}

	for _, id := range newIDs {
		prev, ok := old[id]
		if !ok {
			continue
		}
		changes = append(changes, compareProduct(prev, new[id])...)
	}

	return changes
}

// compareProduct reports field-level changes for a product present in
// both snapshots.
func compareProduct(old, new model.Product) []model.Change {
	var changes []model.Change

	base := model.Change{
		ProductID: new.ID,
		Handle:    new.Handle,
		Title:     new.Title,
		Vendor:    new.Vendor,
	}

	if old.PriceCents != new.PriceCents {
		c := base
		c.Type = model.ChangePrice
		c.Details = model.ChangeDetails{
			OldPriceCents: model.Int64Ptr(old.PriceCents),
			NewPriceCents: model.Int64Ptr(new.PriceCents),
		}
		changes = append(changes, c)
	}

	if old.Available != new.Available {
		c := base
		c.Type = model.ChangeAvailability
		c.Details = model.ChangeDetails{
			WasAvailable: model.BoolPtr(old.Available),
			NowAvailable: model.BoolPtr(new.Available),
		}
		changes = append(changes, c)
	}

	if !old.OnSale && new.OnSale {
		c := base
		c.Type = model.ChangeSaleStarted
		c.Details = model.ChangeDetails{
			PriceCents:     model.Int64Ptr(new.PriceCents),
			CompareAtCents: model.Int64Ptr(new.CompareAtCents),
		}
		changes = append(changes, c)
	}

	if old.OnSale && !new.OnSale {
		c := base
		c.Type = model.ChangeSaleEnded
		c.Details = model.ChangeDetails{
			PriceCents: model.Int64Ptr(new.PriceCents),
		}
		changes = append(changes, c)
	}

	return changes
}

// Summary counts changes by type.
func Summary(changes []model.Change) map[model.ChangeType]int {
	counts := make(map[model.ChangeType]int)
	for _, c := range changes {
		counts[c.Type]++
	}
	return counts
}

// GroupByType buckets changes by type, preserving order within each bucket.
func GroupByType(changes []model.Change) map[model.ChangeType][]model.Change {
	grouped := make(map[model.ChangeType][]model.Change)
	for _, c := range changes {
		grouped[c.Type] = append(grouped[c.Type], c)
	}
	return grouped
}
