package archive

import (
	"fmt"
	"strconv"
	"time"

	"github.com/artefactual-labs/scope-services/constants"
)

// DIP is a Dissemination Information Package: the access copy of a
// stored package plus its metadata. It is created either by a user
// upload (ObjectsPath points at the package in the uploads bucket or
// on local disk) or by a Storage Service webhook (the SS* fields
// record where to fetch the package from).
type DIP struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ObjectsPath  string      `gorm:"size:500" json:"objects_path"`
	Uploaded     time.Time   `gorm:"autoCreateTime" json:"uploaded"`
	CollectionID *uint       `gorm:"column:collection_id" json:"collection_id"`
	Collection   *Collection `gorm:"foreignKey:CollectionID" json:"collection,omitempty"`
	DCID         *uint       `gorm:"column:dc_id" json:"dc_id"`
	DC           *DublinCore `gorm:"foreignKey:DCID" json:"dc,omitempty"`
	ImportStatus string      `gorm:"size:7" json:"import_status"`
	ImportError  string      `gorm:"type:text" json:"import_error"`

	// Storage Service
	SSUUID        string `gorm:"column:ss_uuid;size:36;index" json:"ss_uuid"`
	SSDirName     string `gorm:"column:ss_dir_name;size:500" json:"ss_dir_name"`
	SSHostURL     string `gorm:"column:ss_host_url;size:500" json:"ss_host_url"`
	SSDownloadURL string `gorm:"column:ss_download_url;size:500" json:"ss_download_url"`
}

func (DIP) TableName() string {
	return "dips"
}

func (dip *DIP) String() string {
	if dip.DC != nil && dip.DC.Identifier != "" {
		return dip.DC.Identifier
	}
	return strconv.FormatUint(uint64(dip.ID), 10)
}

func (dip *DIP) SearchIndex() string {
	return constants.IndexDIPs
}

func (dip *DIP) SearchID() string {
	return strconv.FormatUint(uint64(dip.ID), 10)
}

func (dip *DIP) SearchData() map[string]interface{} {
	data := map[string]interface{}{}
	addIfNotEmpty(data, "import_status", dip.ImportStatus)
	if dip.DC != nil {
		data["dc"] = dip.DC.SearchInnerData()
	}
	if dip.CollectionID != nil {
		data["collection"] = map[string]interface{}{"id": *dip.CollectionID}
	}
	return data
}

// SearchDataForFiles returns the fields denormalized onto descendant
// DigitalFile documents.
func (dip *DIP) SearchDataForFiles() map[string]interface{} {
	data := map[string]interface{}{"id": dip.ID}
	addIfNotEmpty(data, "import_status", dip.ImportStatus)
	if dip.DC != nil {
		addIfNotEmpty(data, "identifier", dip.DC.Identifier)
		addIfNotEmpty(data, "title", dip.DC.Title)
	}
	return data
}

func (dip *DIP) HasSearchDescendants() bool {
	return true
}

// ImportErrorMessage returns the text shown to privileged users on
// the DIP detail page when the import failed.
func (dip *DIP) ImportErrorMessage() string {
	error := ""
	if dip.ImportError != "" {
		error = fmt.Sprintf("[%s] ", dip.ImportError)
	}
	return fmt.Sprintf(
		"An error occurred during the process executed to extract "+
			"and parse the METS file. %sPlease, contact an administrator.",
		error)
}

// IsVisibleTo checks if a viewer can see this DIP. A DIP with a
// pending import is visible to nobody. A DIP whose import failed, or
// which has no owning Collection, is visible only to editors and
// admins.
func (dip *DIP) IsVisibleTo(isEditor bool) bool {
	return !(dip.ImportStatus == constants.ImportPending ||
		(!isEditor &&
			(dip.ImportStatus == constants.ImportFailure || dip.CollectionID == nil)))
}
