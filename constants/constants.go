package constants

const (
	// DIP import statuses. A DIP is created as ImportPending and moves
	// to exactly one of ImportSuccess or ImportFailure.
	ImportPending = "PENDING"
	ImportSuccess = "SUCCESS"
	ImportFailure = "FAILURE"

	// NSQ topics.
	TopicDIPImport         = "dip_import"
	TopicUpdateDescendants = "search_update_descendants"
	TopicDeleteDescendants = "search_delete_descendants"

	// Search index names. One index per model.
	IndexCollections  = "scope_collections"
	IndexDIPs         = "scope_dips"
	IndexDigitalFiles = "scope_digital_files"

	// Model class names used in fan-out task payloads.
	ClassCollection = "Collection"
	ClassDIP        = "DIP"

	// PREMIS event schema versions. The eventDetail element moved
	// under eventDetailInformation in version 3.
	PremisV2 = "premis-2"
	PremisV3 = "premis-3"

	// Archivematica writes this placeholder at the start of original
	// file paths in the METS techMD.
	TransferDirPrefix = "%transferDirectory%"

	// Archivematica prepends this to the isPartOf value when the SIP
	// belongs to an AIC.
	AICPrefix = "AIC#"

	EmptyUUID = "00000000-0000-0000-0000-000000000000"
)

// ImportStatuses lists every valid DIP import status.
var ImportStatuses = []string{
	ImportPending,
	ImportSuccess,
	ImportFailure,
}
