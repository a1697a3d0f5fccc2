package search

import "github.com/artefactual-labs/scope-services/constants"

// Index mappings mirror the models' SearchData output. Dynamic mapping
// is strict so a drifting field name fails loudly instead of silently
// creating an unqueried field.

const dublinCoreProperties = `{
    "identifier": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
    "title": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
    "date": {"type": "text"},
    "description": {"type": "text"}
}`

const CollectionMapping = `{
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "dc": {"type": "object", "properties": ` + dublinCoreProperties + `}
    }
  }
}`

const DIPMapping = `{
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "dc": {"type": "object", "properties": ` + dublinCoreProperties + `},
      "collection": {"type": "object", "properties": {"id": {"type": "integer"}}},
      "import_status": {"type": "keyword"}
    }
  }
}`

// The filepath analyzer uses the pattern tokenizer, which defaults to
// splitting on "\W+", so file extensions become separate tokens.
const DigitalFileMapping = `{
  "settings": {
    "analysis": {
      "analyzer": {
        "filepath": {
          "type": "custom",
          "tokenizer": "pattern",
          "filter": ["lowercase"]
        }
      }
    }
  },
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "uuid": {"type": "text"},
      "filepath": {"type": "text", "analyzer": "filepath", "fields": {"raw": {"type": "keyword"}}},
      "fileformat": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "size_bytes": {"type": "long"},
      "datemodified": {"type": "date"},
      "dip": {
        "type": "object",
        "properties": {
          "id": {"type": "integer"},
          "identifier": {"type": "text"},
          "title": {"type": "text"},
          "import_status": {"type": "keyword"}
        }
      },
      "collection": {
        "type": "object",
        "properties": {
          "id": {"type": "integer"},
          "identifier": {"type": "text"},
          "title": {"type": "text", "fields": {"raw": {"type": "keyword"}}}
        }
      }
    }
  }
}`

// IndexMappings maps each index name to its creation body.
var IndexMappings = map[string]string{
	constants.IndexCollections:  CollectionMapping,
	constants.IndexDIPs:         DIPMapping,
	constants.IndexDigitalFiles: DigitalFileMapping,
}
