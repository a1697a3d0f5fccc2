package webhook_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/util/logger"
	"github.com/artefactual-labs/scope-services/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testToken = "secret-token"
	testHost  = "http://ss.example.com:8000"
	testUUID  = "5ffa2f3e-7bcc-46eb-a215-0a8a3fc3f9b2"
)

type fakeIndex struct{}

func (f *fakeIndex) SaveDocument(ctx context.Context, doc archive.Searchable) error {
	return nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, doc archive.Searchable) error {
	return nil
}

func (f *fakeIndex) UpdateByScript(ctx context.Context, index string, ids []string, source string, params map[string]interface{}) (int, []string, error) {
	return 0, nil, nil
}

func (f *fakeIndex) DeleteByAncestor(ctx context.Context, indices []string, field string, id uint) (int64, int64, []string, error) {
	return 0, 0, nil, nil
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

func newTestServer(t *testing.T) (*webhook.Server, *datastore.Store, *fakeQueue) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.Nil(t, err)
	queue := &fakeQueue{}
	store := datastore.NewStore(db, &fakeIndex{}, queue, logger.DiscardLogger())
	require.Nil(t, store.AutoMigrate())
	ctx := &common.Context{
		Config: &common.Config{
			WebhookToken: testToken,
			SSHosts: map[string]common.SSCredentials{
				testHost: {User: "test", Secret: "secret"},
			},
		},
		Logger: logger.DiscardLogger(),
	}
	return webhook.NewServer(ctx, store, queue), store, queue
}

func storedRequest(token, origin, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/dip/%s/stored", testUUID), reader)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestDIPStoredAccepted(t *testing.T) {
	server, store, queue := newTestServer(t)
	resp := httptest.NewRecorder()
	server.Handler().ServeHTTP(resp, storedRequest(testToken, testHost, ""))

	require.Equal(t, http.StatusAccepted, resp.Code)
	body := map[string]string{}
	require.Nil(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "DIP stored event accepted: "+testUUID, body["message"])

	dip, err := store.GetDIPBySSUUID(testUUID)
	require.Nil(t, err)
	require.NotNil(t, dip)
	assert.Equal(t, constants.ImportPending, dip.ImportStatus)
	assert.Equal(t, testHost, dip.SSHostURL)
	assert.Equal(t,
		fmt.Sprintf("%s/api/v2/file/%s/download/", testHost, testUUID),
		dip.SSDownloadURL)

	saved, err := store.GetDIP(dip.ID)
	require.Nil(t, err)
	require.NotNil(t, saved.DC)
	assert.Equal(t, testUUID, saved.DC.Identifier)

	require.Equal(t, 1, len(queue.published[constants.TopicDIPImport]))
	assert.Equal(t, fmt.Sprintf("%d", dip.ID),
		queue.published[constants.TopicDIPImport][0])
}

func TestDIPStoredCustomDownloadURL(t *testing.T) {
	server, store, _ := newTestServer(t)
	resp := httptest.NewRecorder()
	body := `{"download_url": "http://ss.example.com:8000/custom/download"}`
	server.Handler().ServeHTTP(resp, storedRequest(testToken, testHost, body))

	require.Equal(t, http.StatusAccepted, resp.Code)
	dip, err := store.GetDIPBySSUUID(testUUID)
	require.Nil(t, err)
	require.NotNil(t, dip)
	assert.Equal(t, "http://ss.example.com:8000/custom/download", dip.SSDownloadURL)
}

func TestDIPStoredRejectsBadToken(t *testing.T) {
	server, _, queue := newTestServer(t)
	resp := httptest.NewRecorder()
	server.Handler().ServeHTTP(resp, storedRequest("wrong", testHost, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, 0, len(queue.published[constants.TopicDIPImport]))
}

func TestDIPStoredRequiresOrigin(t *testing.T) {
	server, _, _ := newTestServer(t)
	resp := httptest.NewRecorder()
	server.Handler().ServeHTTP(resp, storedRequest(testToken, "", ""))
	require.Equal(t, http.StatusForbidden, resp.Code)
	body := map[string]string{}
	require.Nil(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Origin not set in the request headers.", body["detail"])
}

func TestDIPStoredRejectsUnknownOrigin(t *testing.T) {
	server, _, _ := newTestServer(t)
	resp := httptest.NewRecorder()
	server.Handler().ServeHTTP(resp, storedRequest(testToken, "http://other.example.com", ""))
	require.Equal(t, http.StatusForbidden, resp.Code)
	body := map[string]string{}
	require.Nil(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "SS host not configured for Origin: http://other.example.com",
		body["detail"])
}

func TestDIPStoredRejectsDuplicate(t *testing.T) {
	server, _, queue := newTestServer(t)
	resp := httptest.NewRecorder()
	server.Handler().ServeHTTP(resp, storedRequest(testToken, testHost, ""))
	require.Equal(t, http.StatusAccepted, resp.Code)

	resp = httptest.NewRecorder()
	server.Handler().ServeHTTP(resp, storedRequest(testToken, testHost, ""))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	body := map[string]string{}
	require.Nil(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "A DIP already exists with the same UUID: "+testUUID, body["detail"])
	assert.Equal(t, 1, len(queue.published[constants.TopicDIPImport]))
}

func TestDIPStoredRejectsBadUUID(t *testing.T) {
	server, _, _ := newTestServer(t)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dip/not-a-uuid/stored", nil)
	req.Header.Set("Authorization", "Token "+testToken)
	req.Header.Set("Origin", testHost)
	server.Handler().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDIPStoredRejectsGet(t *testing.T) {
	server, _, _ := newTestServer(t)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/dip/%s/stored", testUUID), nil)
	server.Handler().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}
