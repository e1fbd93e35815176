package catalog

// Item is a normalized product record. Provider-specific shapes are mapped
// onto it at the catalog client boundary; ID is the canonical identifier.
type Item struct {
	ID            string
	Title         string
	DetailURL     string
	ThumbnailURL  string
	LargeImageURL string
	MakerName     string
	Performers    []string
	Genres        []string
}

// Valid reports whether the item carries an identifier.
func (i *Item) Valid() bool { return i.ID != "" }
