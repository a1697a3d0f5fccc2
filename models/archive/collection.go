package archive

import (
	"strconv"

	"github.com/artefactual-labs/scope-services/constants"
)

// Collection is an archival aggregate: a group of DIPs described by
// one DublinCore record and an optional finding aid link.
type Collection struct {
	ID   uint        `gorm:"primaryKey" json:"id"`
	Link string      `gorm:"size:200" json:"link"`
	DCID *uint       `gorm:"column:dc_id" json:"dc_id"`
	DC   *DublinCore `gorm:"foreignKey:DCID" json:"dc,omitempty"`
}

func (Collection) TableName() string {
	return "collections"
}

func (c *Collection) String() string {
	if c.DC != nil && c.DC.Identifier != "" {
		return c.DC.Identifier
	}
	return strconv.FormatUint(uint64(c.ID), 10)
}

func (c *Collection) SearchIndex() string {
	return constants.IndexCollections
}

func (c *Collection) SearchID() string {
	return strconv.FormatUint(uint64(c.ID), 10)
}

func (c *Collection) SearchData() map[string]interface{} {
	data := map[string]interface{}{}
	if c.DC != nil {
		data["dc"] = c.DC.SearchInnerData()
	}
	return data
}

// SearchDataForFiles returns the fields denormalized onto descendant
// DigitalFile documents.
func (c *Collection) SearchDataForFiles() map[string]interface{} {
	data := map[string]interface{}{"id": c.ID}
	if c.DC != nil {
		addIfNotEmpty(data, "identifier", c.DC.Identifier)
		addIfNotEmpty(data, "title", c.DC.Title)
	}
	return data
}

func (c *Collection) HasSearchDescendants() bool {
	return true
}
