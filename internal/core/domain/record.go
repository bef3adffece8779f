package domain

// ContentRecord is one piece of WordPress content as returned by the content
// source. Produced only by the source adapter and read-only downstream.
//
// Invariant: ID and URL are always populated. A record that cannot be cited
// is dropped by the adapter before it reaches anything else.
type ContentRecord struct {
	// ID is the WordPress content identifier, unique per source.
	ID string

	// Title is the human-readable title.
	Title string

	// Excerpt is the short summary text.
	Excerpt string

	// Content is the full body text, when the source provides it.
	Content string

	// URL is the canonical link used for citations.
	URL string

	// Author is the display name of the author.
	Author string

	// Date is the publish timestamp as reported by the source.
	Date string

	// Type is the content type tag ("post", "page", ...).
	Type string

	// Slug is the URL slug.
	Slug string
}

// Citable reports whether the record may appear in a citation list.
func (r ContentRecord) Citable() bool {
	return r.ID != "" && r.URL != ""
}
