package archive

// PREMISEvent is a preservation action (virus check, format
// identification, normalization...) recorded in the METS for one
// DigitalFile. The event datetime stays free text because PREMIS
// producers disagree on its format.
type PREMISEvent struct {
	UUID          string       `gorm:"column:uuid;primaryKey;size:36" json:"uuid"`
	EventType     string       `gorm:"size:200" json:"eventtype"`
	DateTime      string       `gorm:"column:datetime;size:50" json:"datetime"`
	Detail        string       `gorm:"type:text" json:"detail"`
	Outcome       string       `gorm:"type:text" json:"outcome"`
	DetailNote    string       `gorm:"type:text" json:"detailnote"`
	DigitalFileID string       `gorm:"column:digital_file_id;size:36" json:"digital_file_id"`
	DigitalFile   *DigitalFile `gorm:"foreignKey:DigitalFileID" json:"digital_file,omitempty"`
}

func (PREMISEvent) TableName() string {
	return "premis_events"
}

func (event *PREMISEvent) String() string {
	return event.UUID
}

func (event *PREMISEvent) Validate() error {
	err := NewValidationError("PREMISEvent")
	checkRequired(err, "uuid", event.UUID)
	checkMaxLength(err, "uuid", event.UUID, 36)
	checkMaxLength(err, "eventtype", event.EventType, 200)
	checkMaxLength(err, "datetime", event.DateTime, 50)
	if event.DigitalFileID == "" {
		err.Add("digitalfile", "This field cannot be null.")
	}
	if err.IsEmpty() {
		return nil
	}
	return err
}
