package datastore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/artefactual-labs/scope-services/util/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type scriptCall struct {
	index  string
	ids    []string
	source string
	params map[string]interface{}
}

type deleteByAncestorCall struct {
	indices []string
	field   string
	id      uint
}

// fakeIndex records every call so tests can assert on the index
// traffic a store operation produces.
type fakeIndex struct {
	saved         []string
	deleted       []string
	scriptCalls   []scriptCall
	ancestorCalls []deleteByAncestorCall
}

func (f *fakeIndex) SaveDocument(ctx context.Context, doc archive.Searchable) error {
	f.saved = append(f.saved, fmt.Sprintf("%s/%s", doc.SearchIndex(), doc.SearchID()))
	return nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, doc archive.Searchable) error {
	f.deleted = append(f.deleted, fmt.Sprintf("%s/%s", doc.SearchIndex(), doc.SearchID()))
	return nil
}

func (f *fakeIndex) UpdateByScript(ctx context.Context, index string, ids []string, source string, params map[string]interface{}) (int, []string, error) {
	f.scriptCalls = append(f.scriptCalls, scriptCall{index, ids, source, params})
	return len(ids), nil, nil
}

func (f *fakeIndex) DeleteByAncestor(ctx context.Context, indices []string, field string, id uint) (int64, int64, []string, error) {
	f.ancestorCalls = append(f.ancestorCalls, deleteByAncestorCall{indices, field, id})
	return 1, 1, nil, nil
}

type fakeQueue struct {
	published map[string][]string
}

func (f *fakeQueue) Enqueue(topic string, payload string) error {
	if f.published == nil {
		f.published = make(map[string][]string)
	}
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

func newTestStore(t *testing.T) (*datastore.Store, *fakeIndex, *fakeQueue) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.Nil(t, err)
	index := &fakeIndex{}
	queue := &fakeQueue{}
	store := datastore.NewStore(db, index, queue, logger.DiscardLogger())
	require.Nil(t, store.AutoMigrate())
	return store, index, queue
}

// createTree creates a Collection holding one DIP holding one file.
func createTree(t *testing.T, store *datastore.Store) (*archive.Collection, *archive.DIP, *archive.DigitalFile) {
	ctx := context.Background()
	collection := &archive.Collection{DC: &archive.DublinCore{Identifier: "COLL-1"}}
	require.Nil(t, store.SaveCollection(ctx, collection))
	dip := &archive.DIP{
		CollectionID: &collection.ID,
		DC:           &archive.DublinCore{Identifier: "ABC-123"},
		ImportStatus: constants.ImportSuccess,
	}
	require.Nil(t, store.SaveDIP(ctx, dip))
	file := &archive.DigitalFile{
		UUID:       "07263cdf-d11f-4d24-9e16-ef46f002d037",
		FilePath:   "objects/bird.sounds.doc",
		FileFormat: "Microsoft Word Binary File Format",
		AmdSec:     "amdSec_1",
		HashType:   "sha256",
		HashValue:  "d9fc1872",
		DIPID:      dip.ID,
	}
	require.Nil(t, store.SaveDigitalFile(ctx, file))
	return collection, dip, file
}

func TestSaveDIPSyncsIndexAndFansOut(t *testing.T) {
	store, index, queue := newTestStore(t)
	_, dip, _ := createTree(t, store)

	assert.Contains(t, index.saved, fmt.Sprintf("%s/%d", constants.IndexDIPs, dip.ID))
	// The saves in createTree happened before any DigitalFile
	// existed, so there was nothing to fan out to yet.
	assert.Equal(t, 0, len(queue.published[constants.TopicUpdateDescendants]))

	require.Nil(t, store.SaveDIP(context.Background(), dip))
	expected, _ := service.NewFanoutTask(constants.ClassDIP, dip.ID).ToJSON()
	assert.Equal(t, []string{expected},
		queue.published[constants.TopicUpdateDescendants])
}

func TestSaveCollectionFansOutOnlyWithFiles(t *testing.T) {
	store, _, queue := newTestStore(t)
	collection, _, _ := createTree(t, store)

	require.Nil(t, store.SaveCollection(context.Background(), collection))
	expected, _ := service.NewFanoutTask(constants.ClassCollection, collection.ID).ToJSON()
	assert.Equal(t, []string{expected},
		queue.published[constants.TopicUpdateDescendants])

	empty := &archive.Collection{DC: &archive.DublinCore{Identifier: "COLL-9"}}
	require.Nil(t, store.SaveCollection(context.Background(), empty))
	assert.Equal(t, 1, len(queue.published[constants.TopicUpdateDescendants]))
}

func TestUpdateDIPQuietTouchesNothing(t *testing.T) {
	store, index, queue := newTestStore(t)
	_, dip, _ := createTree(t, store)
	savedDocs := len(index.saved)
	publishedTasks := len(queue.published[constants.TopicUpdateDescendants])

	dip.SSDirName = "bird-sounds-5ffa2f3e"
	require.Nil(t, store.UpdateDIPQuiet(dip))

	assert.Equal(t, savedDocs, len(index.saved))
	assert.Equal(t, publishedTasks, len(queue.published[constants.TopicUpdateDescendants]))
}

func TestGetDIPPreloadsAssociations(t *testing.T) {
	store, _, _ := newTestStore(t)
	collection, dip, _ := createTree(t, store)

	saved, err := store.GetDIP(dip.ID)
	require.Nil(t, err)
	require.NotNil(t, saved)
	require.NotNil(t, saved.DC)
	assert.Equal(t, "ABC-123", saved.DC.Identifier)
	require.NotNil(t, saved.Collection)
	require.NotNil(t, saved.Collection.DC)
	assert.Equal(t, collection.ID, saved.Collection.ID)
	assert.Equal(t, "COLL-1", saved.Collection.DC.Identifier)
}

func TestGetDIPNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)
	dip, err := store.GetDIP(999)
	require.Nil(t, err)
	assert.Nil(t, dip)
}

func TestGetDIPBySSUUID(t *testing.T) {
	store, _, _ := newTestStore(t)
	dip := &archive.DIP{SSUUID: "5ffa2f3e-7bcc-46eb-a215-0a8a3fc3f9b2"}
	require.Nil(t, store.UpdateDIPQuiet(dip))

	found, err := store.GetDIPBySSUUID("5ffa2f3e-7bcc-46eb-a215-0a8a3fc3f9b2")
	require.Nil(t, err)
	require.NotNil(t, found)
	assert.Equal(t, dip.ID, found.ID)

	missing, err := store.GetDIPBySSUUID(constants.EmptyUUID)
	require.Nil(t, err)
	assert.Nil(t, missing)
}

func TestFindCollectionsByDCIdentifier(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	require.Nil(t, store.SaveCollection(ctx,
		&archive.Collection{DC: &archive.DublinCore{Identifier: "COLL-1"}}))
	require.Nil(t, store.SaveCollection(ctx,
		&archive.Collection{DC: &archive.DublinCore{Identifier: "COLL-2"}}))

	found, err := store.FindCollectionsByDCIdentifier("COLL-1")
	require.Nil(t, err)
	require.Equal(t, 1, len(found))
	assert.Equal(t, "COLL-1", found[0].DC.Identifier)

	found, err = store.FindCollectionsByDCIdentifier("nope")
	require.Nil(t, err)
	assert.Equal(t, 0, len(found))
}

func TestDeleteDIPCascades(t *testing.T) {
	store, index, queue := newTestStore(t)
	_, dip, file := createTree(t, store)
	event := &archive.PREMISEvent{
		UUID:          "291f9be4-d19a-4bcc-8e1c-d3f01e4a48b1",
		DigitalFileID: file.UUID,
	}
	require.Nil(t, store.SavePREMISEvent(event))

	require.Nil(t, store.DeleteDIP(context.Background(), dip))

	gone, err := store.GetDigitalFile(file.UUID)
	require.Nil(t, err)
	assert.Nil(t, gone)
	goneEvent, err := store.GetPREMISEvent(event.UUID)
	require.Nil(t, err)
	assert.Nil(t, goneEvent)
	var dcCount int64
	require.Nil(t, store.DB().Model(&archive.DublinCore{}).
		Where("identifier = ?", "ABC-123").Count(&dcCount).Error)
	assert.Equal(t, int64(0), dcCount)

	assert.Contains(t, index.deleted, fmt.Sprintf("%s/%d", constants.IndexDIPs, dip.ID))
	expected, _ := service.NewFanoutTask(constants.ClassDIP, dip.ID).ToJSON()
	assert.Contains(t, queue.published[constants.TopicDeleteDescendants], expected)
}

func TestDeleteCollectionCascades(t *testing.T) {
	store, index, queue := newTestStore(t)
	collection, dip, file := createTree(t, store)
	event := &archive.PREMISEvent{
		UUID:          "421ebe5c-5d4d-4b5e-a2fa-b7b617f01f56",
		DigitalFileID: file.UUID,
	}
	require.Nil(t, store.SavePREMISEvent(event))

	require.Nil(t, store.DeleteCollection(context.Background(), collection))

	gone, err := store.GetDIP(dip.ID)
	require.Nil(t, err)
	assert.Nil(t, gone)
	goneFile, err := store.GetDigitalFile(file.UUID)
	require.Nil(t, err)
	assert.Nil(t, goneFile)
	goneEvent, err := store.GetPREMISEvent(event.UUID)
	require.Nil(t, err)
	assert.Nil(t, goneEvent)
	var dcCount int64
	require.Nil(t, store.DB().Model(&archive.DublinCore{}).Count(&dcCount).Error)
	assert.Equal(t, int64(0), dcCount)

	assert.Contains(t, index.deleted,
		fmt.Sprintf("%s/%d", constants.IndexCollections, collection.ID))
	expected, _ := service.NewFanoutTask(constants.ClassCollection, collection.ID).ToJSON()
	assert.Equal(t, []string{expected},
		queue.published[constants.TopicDeleteDescendants])
}

func TestDeleteCollectionWithoutDIPsSkipsFanout(t *testing.T) {
	store, _, queue := newTestStore(t)
	collection := &archive.Collection{DC: &archive.DublinCore{Identifier: "COLL-9"}}
	require.Nil(t, store.SaveCollection(context.Background(), collection))

	require.Nil(t, store.DeleteCollection(context.Background(), collection))
	assert.Equal(t, 0, len(queue.published[constants.TopicDeleteDescendants]))
}

func TestDeleteDIPWithoutFilesSkipsFanout(t *testing.T) {
	store, _, queue := newTestStore(t)
	dip := &archive.DIP{ImportStatus: constants.ImportPending}
	require.Nil(t, store.UpdateDIPQuiet(dip))

	require.Nil(t, store.DeleteDIP(context.Background(), dip))
	assert.Equal(t, 0, len(queue.published[constants.TopicDeleteDescendants]))
}

func TestUpdateDescendantsForDIP(t *testing.T) {
	store, index, _ := newTestStore(t)
	_, dip, file := createTree(t, store)

	task := service.NewFanoutTask(constants.ClassDIP, dip.ID)
	require.Nil(t, store.UpdateDescendants(context.Background(), task))

	require.Equal(t, 1, len(index.scriptCalls))
	call := index.scriptCalls[0]
	assert.Equal(t, constants.IndexDigitalFiles, call.index)
	assert.Equal(t, []string{file.UUID}, call.ids)
	assert.Contains(t, call.source, "ctx._source.dip = params.dip;")
	assert.Contains(t, call.source, "ctx._source.remove('collection');")
	assert.NotNil(t, call.params["dip"])
	assert.NotNil(t, call.params["collection"])
}

func TestUpdateDescendantsForCollection(t *testing.T) {
	store, index, _ := newTestStore(t)
	collection, _, file := createTree(t, store)

	task := service.NewFanoutTask(constants.ClassCollection, collection.ID)
	require.Nil(t, store.UpdateDescendants(context.Background(), task))

	require.Equal(t, 1, len(index.scriptCalls))
	call := index.scriptCalls[0]
	assert.Equal(t, constants.IndexDigitalFiles, call.index)
	assert.Equal(t, []string{file.UUID}, call.ids)
	assert.Equal(t, "ctx._source.collection = params.collection;", call.source)
}

func TestUpdateDescendantsRejectsOtherClasses(t *testing.T) {
	store, _, _ := newTestStore(t)
	task := &service.FanoutTask{Class: "DigitalFile", ID: 1}
	err := store.UpdateDescendants(context.Background(), task)
	assert.NotNil(t, err)
}

func TestDeleteDescendants(t *testing.T) {
	store, index, _ := newTestStore(t)

	task := service.NewFanoutTask(constants.ClassCollection, 7)
	require.Nil(t, store.DeleteDescendants(context.Background(), task))
	task = service.NewFanoutTask(constants.ClassDIP, 12)
	require.Nil(t, store.DeleteDescendants(context.Background(), task))

	require.Equal(t, 2, len(index.ancestorCalls))
	assert.Equal(t,
		deleteByAncestorCall{
			indices: []string{constants.IndexDIPs, constants.IndexDigitalFiles},
			field:   "collection.id",
			id:      7,
		},
		index.ancestorCalls[0])
	assert.Equal(t,
		deleteByAncestorCall{
			indices: []string{constants.IndexDigitalFiles},
			field:   "dip.id",
			id:      12,
		},
		index.ancestorCalls[1])
}
