package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
)

// METSError marks a problem with the METS content itself. These are
// never retried: the file will read the same way next time.
type METSError struct {
	message string
}

func (e *METSError) Error() string {
	return e.message
}

func newMETSError(format string, a ...interface{}) *METSError {
	return &METSError{message: fmt.Sprintf(format, a...)}
}

// METSParser applies the content of a METS file to a DIP: it upserts
// the DigitalFiles and PREMISEvents keyed by their METS UUIDs, and
// resolves the SIP-level Dublin Core metadata onto the DIP, linking it
// to a Collection when the metadata names one. Parsing the same METS
// twice converges to the same records.
type METSParser struct {
	store  *datastore.Store
	reader *METSReader
	dip    *archive.DIP
}

func NewMETSParser(store *datastore.Store, reader *METSReader, dip *archive.DIP) *METSParser {
	return &METSParser{
		store:  store,
		reader: reader,
		dip:    dip,
	}
}

// ParseMETS saves every original file and its events, then the
// Dublin Core metadata. The caller owns the DIP's import status.
func (parser *METSParser) ParseMETS(ctx context.Context) error {
	for _, rec := range parser.reader.OriginalFiles() {
		if err := parser.saveFile(ctx, rec); err != nil {
			return err
		}
	}
	return parser.saveDublinCore(ctx)
}

func (parser *METSParser) saveFile(ctx context.Context, rec *FileRecord) error {
	file, err := TransformFile(rec)
	if err != nil {
		return err
	}
	if file.UUID == "" {
		return newMETSError("An original file in this METS file is missing its UUID.")
	}
	existing, err := parser.store.GetDigitalFile(file.UUID)
	if err != nil {
		return err
	}
	if existing != nil && existing.DIPID != parser.dip.ID {
		return newMETSError(
			"An original file in this METS file has the same UUID "+
				"as an existing one from another DIP (%s).", file.UUID)
	}
	file.DIPID = parser.dip.ID
	file.DIP = parser.dip
	if err := file.Validate(); err != nil {
		return err
	}
	if err := parser.store.SaveDigitalFile(ctx, file); err != nil {
		return err
	}
	for _, eventRec := range rec.Events {
		if err := parser.saveEvent(file, eventRec); err != nil {
			return err
		}
	}
	return nil
}

func (parser *METSParser) saveEvent(file *archive.DigitalFile, rec *EventRecord) error {
	if rec.UUID == "" {
		return newMETSError("A PREMISEvent in this METS file is missing its UUID.")
	}
	existing, err := parser.store.GetPREMISEvent(rec.UUID)
	if err != nil {
		return err
	}
	if existing != nil && existing.DigitalFileID != file.UUID {
		return newMETSError(
			"A PREMISEvent in this METS file has the same UUID "+
				"as an existing one from another DIP (%s).", rec.UUID)
	}
	event := &archive.PREMISEvent{
		UUID:          rec.UUID,
		EventType:     rec.EventType,
		DateTime:      rec.DateTime,
		Detail:        rec.Detail,
		Outcome:       rec.Outcome,
		DetailNote:    rec.DetailNote,
		DigitalFileID: file.UUID,
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return parser.store.SavePREMISEvent(event)
}

// saveDublinCore applies the METS dmdSec metadata to the DIP's
// DublinCore record and links the DIP to a Collection when isPartOf
// or relation names exactly one. The search document is not touched
// here, the import's final save covers it.
func (parser *METSParser) saveDublinCore(ctx context.Context) error {
	rec := parser.reader.DublinCore()
	if rec == nil {
		return nil
	}

	if err := parser.linkCollection(rec); err != nil {
		return err
	}

	if parser.dip.DC == nil {
		parser.dip.DC = &archive.DublinCore{}
	}
	dc := parser.dip.DC
	// All fields are optional strings, so no validation is needed, but
	// never clear an existing identifier with an empty value.
	if rec.Identifier != "" {
		dc.Identifier = rec.Identifier
	}
	dc.Title = rec.Title
	dc.Creator = rec.Creator
	dc.Subject = rec.Subject
	dc.Description = rec.Description
	dc.Publisher = rec.Publisher
	dc.Contributor = rec.Contributor
	dc.Date = rec.Date
	dc.Type = rec.Type
	dc.Format = rec.Format
	dc.Source = rec.Source
	dc.Language = rec.Language
	dc.Coverage = rec.Coverage
	dc.Rights = rec.Rights

	return parser.store.UpdateDIPQuiet(parser.dip)
}

// linkCollection tries isPartOf first, then relation. Until slugs are
// implemented the lookup uses the Collection DC identifier, which is
// not unique, so zero or multiple matches leave the DIP unlinked.
func (parser *METSParser) linkCollection(rec *DCRecord) error {
	isPartOf := strings.ReplaceAll(rec.IsPartOf, constants.AICPrefix, "")
	for _, identifier := range []string{isPartOf, rec.Relation} {
		if identifier == "" {
			continue
		}
		collections, err := parser.store.FindCollectionsByDCIdentifier(identifier)
		if err != nil {
			return err
		}
		if len(collections) != 1 {
			continue
		}
		parser.dip.CollectionID = &collections[0].ID
		parser.dip.Collection = collections[0]
		return parser.store.UpdateDIPQuiet(parser.dip)
	}
	return nil
}
