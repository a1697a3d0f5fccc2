package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/util"
	"github.com/beevik/etree"
)

// FileRecord holds the raw strings read from one original file's
// amdSec. TransformFile converts these into a DigitalFile.
type FileRecord struct {
	AmdSec        string
	UUID          string
	FilePath      string
	HashType      string
	HashValue     string
	SizeBytes     string
	FileFormat    string
	FormatVersion string
	PUID          string
	DateModified  string
	Events        []*EventRecord
}

// EventRecord holds the raw strings of one PREMIS event.
type EventRecord struct {
	UUID       string
	EventType  string
	DateTime   string
	Detail     string
	Outcome    string
	DetailNote string
}

// DCRecord holds the SIP-level Dublin Core metadata of a METS file.
// IsPartOf and Relation are only used to look up a related Collection;
// they are never stored.
type DCRecord struct {
	Identifier  string
	Title       string
	Creator     string
	Subject     string
	Description string
	Publisher   string
	Contributor string
	Date        string
	Type        string
	Format      string
	Source      string
	Language    string
	Coverage    string
	Rights      string
	IsPartOf    string
	Relation    string
}

// METSReader reads the parts of an Archivematica METS file the import
// cares about: original files with their technical metadata and PREMIS
// events, and the SIP-level Dublin Core record.
type METSReader struct {
	root *etree.Element

	// PremisVersion selects where eventDetail lives. The element
	// moved under eventDetailInformation in PREMIS 3. OpenMETS sets
	// it from the document; callers can override it.
	PremisVersion string
}

// OpenMETS parses the file at path and strips all namespaces from the
// element tree, so the rest of the reader can query by local names
// regardless of prefix choices.
func OpenMETS(path string) (*METSReader, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("No root element in METS file: %s", path)
	}
	stripNamespaces(root)
	return &METSReader{
		root:          root,
		PremisVersion: detectPremisVersion(root),
	}, nil
}

// detectPremisVersion reports which PREMIS schema the METS events
// use, based on where the first event keeps its detail.
func detectPremisVersion(root *etree.Element) string {
	if root.FindElement("//event/eventDetailInformation") != nil {
		return constants.PremisV3
	}
	return constants.PremisV2
}

func stripNamespaces(el *etree.Element) {
	el.Space = ""
	for _, child := range el.ChildElements() {
		stripNamespaces(child)
	}
}

// OriginalFiles returns a record for every file in the "original" file
// group. Files without an ADMID carry no metadata and are skipped.
func (reader *METSReader) OriginalFiles() []*FileRecord {
	records := []*FileRecord{}
	for _, file := range reader.root.FindElements("//fileGrp[@USE='original']/file") {
		amdSecID := file.SelectAttrValue("ADMID", "")
		if amdSecID == "" {
			continue
		}
		records = append(records, reader.readFileRecord(amdSecID))
	}
	return records
}

func (reader *METSReader) readFileRecord(amdSecID string) *FileRecord {
	rec := &FileRecord{AmdSec: amdSecID}
	path := fmt.Sprintf("//amdSec[@ID='%s']", amdSecID)
	for _, amdSec := range reader.root.FindElements(path) {
		object := "techMD/mdWrap/xmlData/object"
		characteristics := object + "/objectCharacteristics"
		rec.FilePath = elementText(amdSec, object+"/originalName")
		rec.UUID = elementText(amdSec, object+"/objectIdentifier/objectIdentifierValue")
		rec.HashType = elementText(amdSec, characteristics+"/fixity/messageDigestAlgorithm")
		rec.HashValue = elementText(amdSec, characteristics+"/fixity/messageDigest")
		rec.SizeBytes = elementText(amdSec, characteristics+"/size")
		rec.FileFormat = elementText(amdSec, characteristics+"/format/formatDesignation/formatName")
		rec.FormatVersion = elementText(amdSec, characteristics+"/format/formatDesignation/formatVersion")
		rec.PUID = elementText(amdSec, characteristics+"/format/formatRegistry/formatRegistryKey")
		rec.DateModified = elementText(amdSec,
			characteristics+"/objectCharacteristicsExtension/fits/fileinfo/fslastmodified[@toolname='OIS File Information']")

		for _, wrap := range amdSec.FindElements(".//digiprovMD/mdWrap[@MDTYPE='PREMIS:EVENT']") {
			rec.Events = append(rec.Events, reader.readEventRecord(wrap))
		}
	}
	return rec
}

func (reader *METSReader) readEventRecord(wrap *etree.Element) *EventRecord {
	detailPath := "xmlData/event/eventDetail"
	if reader.PremisVersion == constants.PremisV3 {
		detailPath = "xmlData/event/eventDetailInformation/eventDetail"
	}
	return &EventRecord{
		UUID:       elementText(wrap, "xmlData/event/eventIdentifier/eventIdentifierValue"),
		EventType:  elementText(wrap, "xmlData/event/eventType"),
		DateTime:   elementText(wrap, "xmlData/event/eventDateTime"),
		Detail:     elementText(wrap, detailPath),
		Outcome:    elementText(wrap, "xmlData/event/eventOutcomeInformation/eventOutcome"),
		DetailNote: elementText(wrap, "xmlData/event/eventOutcomeInformation/eventOutcomeDetail/eventOutcomeDetailNote"),
	}
}

// DublinCore returns the SIP-level Dublin Core metadata, or nil when
// the METS carries none. The SIP's dmdSec ids come from the structMap
// "objects" directory, and when reingests have produced more than one
// section the one with the highest CREATED value wins.
func (reader *METSReader) DublinCore() *DCRecord {
	dmds := []*etree.Element{}
	for _, dmd := range reader.root.SelectElements("dmdSec") {
		if dmd.FindElement("mdWrap[@MDTYPE='DC']") != nil {
			dmds = append(dmds, dmd)
		}
	}
	if len(dmds) == 0 {
		return nil
	}

	div := reader.root.FindElement("structMap/div/div[@TYPE='Directory'][@LABEL='objects']")
	if div == nil {
		return nil
	}
	dmdIDs := strings.Fields(div.SelectAttrValue("DMDID", ""))
	if len(dmdIDs) == 0 {
		return nil
	}

	sort.SliceStable(dmds, func(i, j int) bool {
		return dmds[i].SelectAttrValue("CREATED", "") < dmds[j].SelectAttrValue("CREATED", "")
	})
	var dcXML *etree.Element
	for i := len(dmds) - 1; i >= 0; i-- {
		if !util.StringListContains(dmdIDs, dmds[i].SelectAttrValue("ID", "")) {
			continue
		}
		candidate := dmds[i].FindElement("mdWrap/xmlData/dublincore")
		if candidate != nil && len(candidate.ChildElements()) > 0 {
			dcXML = candidate
			break
		}
	}
	if dcXML == nil {
		return nil
	}

	rec := &DCRecord{}
	for _, elem := range dcXML.ChildElements() {
		text := elem.Text()
		if text == "" {
			continue
		}
		switch elem.Tag {
		case "identifier":
			rec.Identifier = text
		case "title":
			rec.Title = text
		case "creator":
			rec.Creator = text
		case "subject":
			rec.Subject = text
		case "description":
			rec.Description = text
		case "publisher":
			rec.Publisher = text
		case "contributor":
			rec.Contributor = text
		case "date":
			rec.Date = text
		case "type":
			rec.Type = text
		case "format":
			rec.Format = text
		case "source":
			rec.Source = text
		case "language":
			rec.Language = text
		case "coverage":
			rec.Coverage = text
		case "rights":
			rec.Rights = text
		case "isPartOf":
			rec.IsPartOf = text
		case "relation":
			rec.Relation = text
		}
	}
	return rec
}

func elementText(parent *etree.Element, path string) string {
	el := parent.FindElement(path)
	if el == nil {
		return ""
	}
	return el.Text()
}
