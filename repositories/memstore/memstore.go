// Package memstore holds in-memory stores with the same contracts as the Mongo
// repositories. Filtering reuses the visibility predicates.
package memstore

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/HSouheill/teamboard_backend/models"
)

// patch applies $set and $unset semantics to doc through a BSON round trip.
func patch(doc interface{}, set bson.M, unset []string, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range set {
		m[k] = v
	}
	for _, k := range unset {
		delete(m, k)
	}
	raw, err = bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func page[T any](items []T, p models.PageRequest) []T {
	p = p.Normalize()
	start := int(p.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[start:end]...)
}

func sortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
