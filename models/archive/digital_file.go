package archive

import (
	"time"

	"github.com/artefactual-labs/scope-services/constants"
)

// DigitalFile is one original file inside a DIP, described by the
// technical metadata extracted from the package METS. The UUID is the
// natural primary key and is globally unique: a UUID must never span
// two DIPs.
type DigitalFile struct {
	UUID          string     `gorm:"column:uuid;primaryKey;size:36" json:"uuid"`
	FilePath      string     `gorm:"type:text" json:"filepath"`
	FileFormat    string     `gorm:"size:200" json:"fileformat"`
	FormatVersion string     `gorm:"size:200" json:"formatversion"`
	SizeBytes     int64      `json:"size_bytes"`
	SizeHuman     string     `gorm:"size:10" json:"size_human"`
	DateModified  *time.Time `json:"datemodified"`
	PUID          string     `gorm:"column:puid;size:200" json:"puid"`
	AmdSec        string     `gorm:"size:12" json:"amdsec"`
	HashType      string     `gorm:"size:7" json:"hashtype"`
	HashValue     string     `gorm:"size:128" json:"hashvalue"`
	DIPID         uint       `gorm:"column:dip_id" json:"dip_id"`
	DIP           *DIP       `gorm:"foreignKey:DIPID" json:"dip,omitempty"`
}

func (DigitalFile) TableName() string {
	return "digital_files"
}

func (df *DigitalFile) String() string {
	return df.UUID
}

func (df *DigitalFile) SearchIndex() string {
	return constants.IndexDigitalFiles
}

func (df *DigitalFile) SearchID() string {
	return df.UUID
}

// SearchData builds the DigitalFile document, including denormalized
// ancestor fields so search result pages avoid secondary lookups.
// Datetimes are saved as UTC in the index.
func (df *DigitalFile) SearchData() map[string]interface{} {
	data := map[string]interface{}{
		"uuid":       df.UUID,
		"filepath":   df.FilePath,
		"fileformat": df.FileFormat,
		"size_bytes": df.SizeBytes,
	}
	if df.DateModified != nil {
		data["datemodified"] = df.DateModified.UTC()
	}
	if df.DIP != nil {
		data["dip"] = df.DIP.SearchDataForFiles()
		if df.DIP.Collection != nil {
			data["collection"] = df.DIP.Collection.SearchDataForFiles()
		}
	}
	return data
}

func (df *DigitalFile) HasSearchDescendants() bool {
	return false
}

func (df *DigitalFile) Validate() error {
	err := NewValidationError("DigitalFile")
	checkRequired(err, "uuid", df.UUID)
	checkMaxLength(err, "uuid", df.UUID, 36)
	checkRequired(err, "filepath", df.FilePath)
	checkRequired(err, "fileformat", df.FileFormat)
	checkMaxLength(err, "fileformat", df.FileFormat, 200)
	checkMaxLength(err, "formatversion", df.FormatVersion, 200)
	if df.SizeBytes < 0 {
		err.Add("size_bytes", "Ensure this value is greater than or equal to 0.")
	}
	checkMaxLength(err, "size_human", df.SizeHuman, 10)
	checkMaxLength(err, "puid", df.PUID, 200)
	checkRequired(err, "amdsec", df.AmdSec)
	checkMaxLength(err, "amdsec", df.AmdSec, 12)
	checkRequired(err, "hashtype", df.HashType)
	checkMaxLength(err, "hashtype", df.HashType, 7)
	checkRequired(err, "hashvalue", df.HashValue)
	checkMaxLength(err, "hashvalue", df.HashValue, 128)
	if df.DIPID == 0 {
		err.Add("dip", "This field cannot be null.")
	}
	if err.IsEmpty() {
		return nil
	}
	return err
}
