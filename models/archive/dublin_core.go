package archive

// DublinCore is a flat descriptive metadata record owned by exactly
// one Collection or one DIP. The relation is inverted (the owner holds
// the foreign key), so a DublinCore does not know its owner's type and
// deletion cascades are handled explicitly by the datastore.
type DublinCore struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Identifier  string `gorm:"size:50" json:"identifier"`
	Title       string `gorm:"size:200" json:"title"`
	Creator     string `gorm:"size:200" json:"creator"`
	Subject     string `gorm:"size:200" json:"subject"`
	Description string `gorm:"type:text" json:"description"`
	Publisher   string `gorm:"size:200" json:"publisher"`
	Contributor string `gorm:"size:200" json:"contributor"`
	Date        string `gorm:"size:21" json:"date"`
	Type        string `gorm:"size:200" json:"type"`
	Format      string `gorm:"type:text" json:"format"`
	Source      string `gorm:"size:200" json:"source"`
	Language    string `gorm:"size:200" json:"language"`
	Coverage    string `gorm:"size:200" json:"coverage"`
	Rights      string `gorm:"size:200" json:"rights"`
}

func (DublinCore) TableName() string {
	return "dublin_cores"
}

// DublinCoreFields lists the Dublin Core element names in display
// order. The METS resolver uses it to default every known field to an
// empty string so downstream code never sees a missing key.
var DublinCoreFields = []string{
	"identifier",
	"title",
	"creator",
	"subject",
	"description",
	"publisher",
	"contributor",
	"date",
	"type",
	"format",
	"source",
	"language",
	"coverage",
	"rights",
}

func (dc *DublinCore) String() string {
	return dc.Identifier
}

// SearchInnerData returns the fields embedded in the owner's search
// document as the "dc" object.
func (dc *DublinCore) SearchInnerData() map[string]interface{} {
	data := map[string]interface{}{"identifier": dc.Identifier}
	addIfNotEmpty(data, "title", dc.Title)
	addIfNotEmpty(data, "date", dc.Date)
	addIfNotEmpty(data, "description", dc.Description)
	return data
}

func (dc *DublinCore) Validate() error {
	err := NewValidationError("DublinCore")
	checkRequired(err, "identifier", dc.Identifier)
	checkMaxLength(err, "identifier", dc.Identifier, 50)
	checkMaxLength(err, "title", dc.Title, 200)
	checkMaxLength(err, "creator", dc.Creator, 200)
	checkMaxLength(err, "subject", dc.Subject, 200)
	checkMaxLength(err, "publisher", dc.Publisher, 200)
	checkMaxLength(err, "contributor", dc.Contributor, 200)
	checkMaxLength(err, "date", dc.Date, 21)
	checkMaxLength(err, "type", dc.Type, 200)
	checkMaxLength(err, "source", dc.Source, 200)
	checkMaxLength(err, "language", dc.Language, 200)
	checkMaxLength(err, "coverage", dc.Coverage, 200)
	checkMaxLength(err, "rights", dc.Rights, 200)
	if err.IsEmpty() {
		return nil
	}
	return err
}
