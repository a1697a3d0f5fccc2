package datastore

import (
	"context"
	"fmt"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/models/service"
)

// Painless scripts for the descendant partial updates. A partial
// update with `doc` leaves fields missing from the data in place, and
// `doc` can't be combined with `script` in one action, so removal of
// a cleared ancestor has to happen in the script itself.
const (
	updateCollectionScript = "ctx._source.collection = params.collection;"

	updateDIPScript = `
		ctx._source.dip = params.dip;
		if (params.containsKey('collection')) {
		  ctx._source.collection = params.collection;
		} else {
		  ctx._source.remove('collection');
		}
	`
)

// UpdateDescendants rewrites the denormalized ancestor fields on
// every DigitalFile document under the task's Collection or DIP.
func (store *Store) UpdateDescendants(ctx context.Context, task *service.FanoutTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	store.logger.Infof("Updating DigitalFiles of %s [id: %d]", task.Class, task.ID)

	var script string
	var params map[string]interface{}
	var uuids []string

	switch task.Class {
	case constants.ClassCollection:
		collection, err := store.GetCollection(task.ID)
		if err != nil {
			return err
		}
		if collection == nil {
			return fmt.Errorf("Collection not found [id: %d]", task.ID)
		}
		script = updateCollectionScript
		params = map[string]interface{}{"collection": collection.SearchDataForFiles()}
		uuids, err = store.DigitalFileUUIDsForCollection(task.ID)
		if err != nil {
			return err
		}
	case constants.ClassDIP:
		dip, err := store.GetDIP(task.ID)
		if err != nil {
			return err
		}
		if dip == nil {
			return fmt.Errorf("DIP not found [id: %d]", task.ID)
		}
		script = updateDIPScript
		params = map[string]interface{}{"dip": dip.SearchDataForFiles()}
		if dip.Collection != nil {
			params["collection"] = dip.Collection.SearchDataForFiles()
		}
		uuids, err = store.DigitalFileUUIDsForDIP(task.ID)
		if err != nil {
			return err
		}
	}

	succeeded, failures, err := store.index.UpdateByScript(
		ctx, constants.IndexDigitalFiles, uuids, script, params)
	if err != nil {
		return err
	}
	store.logger.Infof("%d/%d DigitalFiles updated.", succeeded, len(uuids))
	store.logFailures(failures)
	return nil
}

// DeleteDescendants removes every search document below the task's
// Collection or DIP. The database rows are already gone at this
// point, only the ancestor id stored on the documents remains.
func (store *Store) DeleteDescendants(ctx context.Context, task *service.FanoutTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	store.logger.Infof("Deleting descendants of %s [id: %d]", task.Class, task.ID)

	var indices []string
	var field string
	switch task.Class {
	case constants.ClassCollection:
		// DIP and DigitalFile documents store the Collection id in the
		// same field, one delete-by-query covers both indexes.
		indices = []string{constants.IndexDIPs, constants.IndexDigitalFiles}
		field = "collection.id"
	case constants.ClassDIP:
		indices = []string{constants.IndexDigitalFiles}
		field = "dip.id"
	}

	deleted, total, failures, err := store.index.DeleteByAncestor(ctx, indices, field, task.ID)
	if err != nil {
		return err
	}
	store.logger.Infof("%d/%d descendants deleted.", deleted, total)
	store.logFailures(failures)
	return nil
}

func (store *Store) logFailures(failures []string) {
	if len(failures) == 0 {
		return
	}
	store.logger.Info("The following errors were encountered:")
	for _, failure := range failures {
		store.logger.Infof("- %s", failure)
	}
}
