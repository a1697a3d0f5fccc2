package search

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/olivere/elastic/v7"
	"github.com/op/go-logging"
)

// Client wraps the Elasticsearch connection with the handful of
// operations the import pipeline needs. Single-document saves and
// deletes refresh the index in the same request so the access app
// sees the change immediately.
type Client struct {
	es     *elastic.Client
	logger *logging.Logger
}

func NewClient(es *elastic.Client, logger *logging.Logger) *Client {
	return &Client{
		es:     es,
		logger: logger,
	}
}

// CreateIndexes drops and recreates every index with its strict
// mapping. All existing documents are lost.
func (client *Client) CreateIndexes(ctx context.Context) error {
	for name, mapping := range IndexMappings {
		exists, err := client.es.IndexExists(name).Do(ctx)
		if err != nil {
			return err
		}
		if exists {
			_, err = client.es.DeleteIndex(name).Do(ctx)
			if err != nil {
				return err
			}
		}
		_, err = client.es.CreateIndex(name).BodyString(mapping).Do(ctx)
		if err != nil {
			return err
		}
		client.logger.Infof("Created index %s", name)
	}
	return nil
}

// SaveDocument indexes one record, overwriting any prior version.
func (client *Client) SaveDocument(ctx context.Context, doc archive.Searchable) error {
	_, err := client.es.Index().
		Index(doc.SearchIndex()).
		Id(doc.SearchID()).
		BodyJson(doc.SearchData()).
		Refresh("true").
		Do(ctx)
	return err
}

// DeleteDocument removes one record from its index. A missing
// document is not an error, the desired state is already in place.
func (client *Client) DeleteDocument(ctx context.Context, doc archive.Searchable) error {
	_, err := client.es.Delete().
		Index(doc.SearchIndex()).
		Id(doc.SearchID()).
		Refresh("true").
		Do(ctx)
	if elastic.IsNotFound(err) {
		return nil
	}
	return err
}

// UpdateByScript runs the same painless script against a list of
// document ids in one bulk request. Partial updates with `doc` leave
// stale fields behind, the script can remove them. Returns the number
// of documents updated and a message per failed item.
func (client *Client) UpdateByScript(ctx context.Context, index string, ids []string, source string, params map[string]interface{}) (int, []string, error) {
	if len(ids) == 0 {
		return 0, nil, nil
	}
	script := elastic.NewScript(source).Lang("painless").Params(params)
	bulk := client.es.Bulk()
	for _, id := range ids {
		bulk.Add(elastic.NewBulkUpdateRequest().
			Index(index).
			Id(id).
			Script(script))
	}
	resp, err := bulk.Do(ctx)
	if err != nil {
		return 0, nil, err
	}
	failures := make([]string, 0)
	for _, item := range resp.Failed() {
		msg := fmt.Sprintf("%s: status %d", item.Id, item.Status)
		if item.Error != nil {
			msg = fmt.Sprintf("%s, %s: %s", msg, item.Error.Type, item.Error.Reason)
		}
		failures = append(failures, msg)
	}
	return len(resp.Succeeded()), failures, nil
}

// DeleteByAncestor removes every document whose ancestor field holds
// the given id. Param indices may name more than one index when the
// ancestor field is shared. Returns deleted count, total matched and
// a message per failure.
func (client *Client) DeleteByAncestor(ctx context.Context, indices []string, field string, id uint) (int64, int64, []string, error) {
	query := elastic.NewTermQuery(field, id)
	resp, err := client.es.DeleteByQuery(indices...).
		Query(query).
		Do(ctx)
	if err != nil {
		return 0, 0, nil, err
	}
	failures := make([]string, 0)
	for _, failure := range resp.Failures {
		failures = append(failures, fmt.Sprintf("%s: status %d", failure.Id, failure.Status))
	}
	return resp.Deleted, resp.Total, failures, nil
}

// IsTransient says whether an Elasticsearch error is worth retrying.
// Connection problems and server-side errors usually clear up,
// mapping and request errors never do.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if elastic.IsConnErr(err) || elastic.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		return esErr.Status == 429 || esErr.Status >= 500
	}
	return false
}
