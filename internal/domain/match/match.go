package match

import (
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/keyword"
)

// Record associates a catalog item with the (facet, term) search that produced it.
type Record struct {
	Item catalog.Item
	Pair keyword.Pair
}

// New creates a match record.
func New(item catalog.Item, pair keyword.Pair) Record {
	return Record{Item: item, Pair: pair}
}
