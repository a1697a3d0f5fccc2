package datastore

import (
	"context"
	"errors"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/op/go-logging"
	"gorm.io/gorm"
)

// SearchIndex is the slice of the search client the store needs.
// Fakes implement this in tests.
type SearchIndex interface {
	SaveDocument(ctx context.Context, doc archive.Searchable) error
	DeleteDocument(ctx context.Context, doc archive.Searchable) error
	UpdateByScript(ctx context.Context, index string, ids []string, source string, params map[string]interface{}) (int, []string, error)
	DeleteByAncestor(ctx context.Context, indices []string, field string, id uint) (int64, int64, []string, error)
}

// TaskQueue publishes fan-out tasks. The NSQ client implements this.
type TaskQueue interface {
	Enqueue(topic string, payload string) error
}

// Store keeps the relational database and the search indexes in
// sync. Every save and delete of an indexed model goes through here:
// the record's own document is written synchronously, and when the
// record has indexed descendants their partial updates are queued as
// an NSQ fan-out task.
type Store struct {
	db     *gorm.DB
	index  SearchIndex
	queue  TaskQueue
	logger *logging.Logger
}

func NewStore(db *gorm.DB, index SearchIndex, queue TaskQueue, logger *logging.Logger) *Store {
	return &Store{
		db:     db,
		index:  index,
		queue:  queue,
		logger: logger,
	}
}

// AutoMigrate creates or updates the database schema.
func (store *Store) AutoMigrate() error {
	return store.db.AutoMigrate(
		&archive.DublinCore{},
		&archive.Collection{},
		&archive.DIP{},
		&archive.DigitalFile{},
		&archive.PREMISEvent{},
	)
}

// DB exposes the underlying connection for callers that need raw
// transactions.
func (store *Store) DB() *gorm.DB {
	return store.db
}

// ---------- Collection ----------

func (store *Store) SaveCollection(ctx context.Context, collection *archive.Collection) error {
	if collection.DC != nil {
		if err := store.db.Save(collection.DC).Error; err != nil {
			return err
		}
		collection.DCID = &collection.DC.ID
	}
	if err := store.db.Save(collection).Error; err != nil {
		return err
	}
	if err := store.index.SaveDocument(ctx, collection); err != nil {
		return err
	}
	if !collection.HasSearchDescendants() {
		return nil
	}
	hasFiles, err := store.collectionHasFiles(collection.ID)
	if err != nil || !hasFiles {
		return err
	}
	return store.enqueueDescendantUpdate(constants.ClassCollection, collection.ID)
}

func (store *Store) GetCollection(id uint) (*archive.Collection, error) {
	collection := &archive.Collection{}
	err := store.db.Preload("DC").First(collection, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// FindCollectionsByDCIdentifier returns every Collection whose
// DublinCore identifier matches. Used to link an imported DIP to its
// owning Collection.
func (store *Store) FindCollectionsByDCIdentifier(identifier string) ([]*archive.Collection, error) {
	var collections []*archive.Collection
	err := store.db.
		Joins("JOIN dublin_cores ON dublin_cores.id = collections.dc_id").
		Where("dublin_cores.identifier = ?", identifier).
		Preload("DC").
		Find(&collections).Error
	if err != nil {
		return nil, err
	}
	return collections, nil
}

// DeleteCollection removes the Collection and everything under it:
// its DIPs with their DigitalFiles and PREMISEvents, the DublinCore
// records, and the Collection's search document. SQLite does not
// cascade for us here, the owned rows are deleted explicitly. The
// descendant documents in the dips and digital_files indexes go
// through a single fan-out task on the collection id.
func (store *Store) DeleteCollection(ctx context.Context, collection *archive.Collection) error {
	var dipIDs []uint
	err := store.db.Model(&archive.DIP{}).
		Where("collection_id = ?", collection.ID).
		Pluck("id", &dipIDs).Error
	if err != nil {
		return err
	}
	if len(dipIDs) > 0 {
		err = store.db.
			Where("digital_file_id IN (?)",
				store.db.Model(&archive.DigitalFile{}).Select("uuid").Where("dip_id IN ?", dipIDs)).
			Delete(&archive.PREMISEvent{}).Error
		if err != nil {
			return err
		}
		if err := store.db.Where("dip_id IN ?", dipIDs).Delete(&archive.DigitalFile{}).Error; err != nil {
			return err
		}
		var dcIDs []uint
		err = store.db.Model(&archive.DIP{}).
			Where("collection_id = ? AND dc_id IS NOT NULL", collection.ID).
			Pluck("dc_id", &dcIDs).Error
		if err != nil {
			return err
		}
		if err := store.db.Where("collection_id = ?", collection.ID).Delete(&archive.DIP{}).Error; err != nil {
			return err
		}
		if len(dcIDs) > 0 {
			if err := store.db.Delete(&archive.DublinCore{}, dcIDs).Error; err != nil {
				return err
			}
		}
	}
	if err := store.db.Delete(collection).Error; err != nil {
		return err
	}
	if collection.DCID != nil {
		if err := store.db.Delete(&archive.DublinCore{}, *collection.DCID).Error; err != nil {
			return err
		}
	}
	if err := store.index.DeleteDocument(ctx, collection); err != nil {
		return err
	}
	if len(dipIDs) > 0 {
		return store.enqueueDescendantDelete(constants.ClassCollection, collection.ID)
	}
	return nil
}

// ---------- DIP ----------

func (store *Store) SaveDIP(ctx context.Context, dip *archive.DIP) error {
	if err := store.saveDIPRecord(dip); err != nil {
		return err
	}
	if err := store.index.SaveDocument(ctx, dip); err != nil {
		return err
	}
	if !dip.HasSearchDescendants() {
		return nil
	}
	hasFiles, err := store.dipHasFiles(dip.ID)
	if err != nil || !hasFiles {
		return err
	}
	return store.enqueueDescendantUpdate(constants.ClassDIP, dip.ID)
}

// UpdateDIPQuiet saves the DIP to the database without touching the
// search index. Used for intermediate status changes during import
// that nobody should see in search results.
func (store *Store) UpdateDIPQuiet(dip *archive.DIP) error {
	return store.saveDIPRecord(dip)
}

func (store *Store) saveDIPRecord(dip *archive.DIP) error {
	if dip.DC != nil {
		if err := store.db.Save(dip.DC).Error; err != nil {
			return err
		}
		dip.DCID = &dip.DC.ID
	}
	return store.db.Save(dip).Error
}

func (store *Store) GetDIP(id uint) (*archive.DIP, error) {
	dip := &archive.DIP{}
	err := store.db.
		Preload("DC").
		Preload("Collection").
		Preload("Collection.DC").
		First(dip, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dip, nil
}

func (store *Store) GetDIPBySSUUID(ssUUID string) (*archive.DIP, error) {
	dip := &archive.DIP{}
	err := store.db.Where("ss_uuid = ?", ssUUID).First(dip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dip, nil
}

// DeleteDIP removes the DIP, its owned rows and its search document,
// and queues the removal of every descendant document.
func (store *Store) DeleteDIP(ctx context.Context, dip *archive.DIP) error {
	uuids, err := store.DigitalFileUUIDsForDIP(dip.ID)
	if err != nil {
		return err
	}
	err = store.db.
		Where("digital_file_id IN (?)",
			store.db.Model(&archive.DigitalFile{}).Select("uuid").Where("dip_id = ?", dip.ID)).
		Delete(&archive.PREMISEvent{}).Error
	if err != nil {
		return err
	}
	err = store.db.Where("dip_id = ?", dip.ID).Delete(&archive.DigitalFile{}).Error
	if err != nil {
		return err
	}
	if err := store.db.Delete(dip).Error; err != nil {
		return err
	}
	if dip.DCID != nil {
		if err := store.db.Delete(&archive.DublinCore{}, *dip.DCID).Error; err != nil {
			return err
		}
	}
	if err := store.index.DeleteDocument(ctx, dip); err != nil {
		return err
	}
	if len(uuids) > 0 {
		return store.enqueueDescendantDelete(constants.ClassDIP, dip.ID)
	}
	return nil
}

// ---------- DigitalFile and PREMISEvent ----------

// SaveDigitalFile saves the record and its search document. The DIP
// and Collection associations must be loaded on the model so the
// document carries the denormalized ancestor fields.
func (store *Store) SaveDigitalFile(ctx context.Context, file *archive.DigitalFile) error {
	if err := store.db.Save(file).Error; err != nil {
		return err
	}
	return store.index.SaveDocument(ctx, file)
}

func (store *Store) GetDigitalFile(uuid string) (*archive.DigitalFile, error) {
	file := &archive.DigitalFile{}
	err := store.db.Where("uuid = ?", uuid).First(file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (store *Store) SavePREMISEvent(event *archive.PREMISEvent) error {
	return store.db.Save(event).Error
}

func (store *Store) GetPREMISEvent(uuid string) (*archive.PREMISEvent, error) {
	event := &archive.PREMISEvent{}
	err := store.db.Where("uuid = ?", uuid).First(event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (store *Store) DigitalFileUUIDsForDIP(dipID uint) ([]string, error) {
	var uuids []string
	err := store.db.Model(&archive.DigitalFile{}).
		Where("dip_id = ?", dipID).
		Pluck("uuid", &uuids).Error
	if err != nil {
		return nil, err
	}
	return uuids, nil
}

func (store *Store) DigitalFileUUIDsForCollection(collectionID uint) ([]string, error) {
	var uuids []string
	err := store.db.Model(&archive.DigitalFile{}).
		Joins("JOIN dips ON dips.id = digital_files.dip_id").
		Where("dips.collection_id = ?", collectionID).
		Pluck("digital_files.uuid", &uuids).Error
	if err != nil {
		return nil, err
	}
	return uuids, nil
}

// AllCollections, AllDIPs and AllDigitalFiles load every record with
// the associations its search document needs. The reindex command is
// the only caller, small deployments make one query per table fine.

func (store *Store) AllCollections() ([]*archive.Collection, error) {
	var collections []*archive.Collection
	err := store.db.Preload("DC").Find(&collections).Error
	return collections, err
}

func (store *Store) AllDIPs() ([]*archive.DIP, error) {
	var dips []*archive.DIP
	err := store.db.
		Preload("DC").
		Preload("Collection").
		Preload("Collection.DC").
		Find(&dips).Error
	return dips, err
}

func (store *Store) AllDigitalFiles() ([]*archive.DigitalFile, error) {
	var files []*archive.DigitalFile
	err := store.db.
		Preload("DIP").
		Preload("DIP.DC").
		Preload("DIP.Collection").
		Preload("DIP.Collection.DC").
		Find(&files).Error
	return files, err
}

func (store *Store) dipHasFiles(dipID uint) (bool, error) {
	var count int64
	err := store.db.Model(&archive.DigitalFile{}).
		Where("dip_id = ?", dipID).
		Count(&count).Error
	return count > 0, err
}

func (store *Store) collectionHasFiles(collectionID uint) (bool, error) {
	var count int64
	err := store.db.Model(&archive.DigitalFile{}).
		Joins("JOIN dips ON dips.id = digital_files.dip_id").
		Where("dips.collection_id = ?", collectionID).
		Count(&count).Error
	return count > 0, err
}

func (store *Store) enqueueDescendantUpdate(class string, id uint) error {
	return store.enqueueFanout(constants.TopicUpdateDescendants, class, id)
}

func (store *Store) enqueueDescendantDelete(class string, id uint) error {
	return store.enqueueFanout(constants.TopicDeleteDescendants, class, id)
}

func (store *Store) enqueueFanout(topic, class string, id uint) error {
	payload, err := service.NewFanoutTask(class, id).ToJSON()
	if err != nil {
		return err
	}
	return store.queue.Enqueue(topic, payload)
}
