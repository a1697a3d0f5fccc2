package archive

// Searchable is implemented by every model that maintains a document
// in the search index. The search index is a derived, best-effort
// cache of the relational store: index updates happen as explicit
// steps in the datastore's Save/Delete methods, never as hidden
// side effects.
type Searchable interface {
	// SearchIndex returns the name of the index holding this
	// model's documents.
	SearchIndex() string

	// SearchID returns the document id, which is always the record's
	// primary key.
	SearchID() string

	// SearchData transforms the record into the document's shape.
	SearchData() map[string]interface{}

	// HasSearchDescendants reports whether documents of other models
	// denormalize this model's fields, so that updates and deletes
	// must fan out. The datastore still checks whether descendant
	// records actually exist before enqueuing a fan-out task.
	HasSearchDescendants() bool
}

// addIfNotEmpty adds key/value to the data map if the value is a
// non-empty string.
func addIfNotEmpty(data map[string]interface{}, key, value string) {
	if value != "" {
		data[key] = value
	}
}
