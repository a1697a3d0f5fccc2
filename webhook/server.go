package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artefactual-labs/scope-services/constants"
	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/google/uuid"
)

// Server receives the "DIP stored" notifications the Storage Service
// sends after it stores a new DIP. Each accepted notification creates
// a pending DIP and queues its import. Other requests from the access
// app aren't served here, this surface is for machines only.
type Server struct {
	context *common.Context
	store   *datastore.Store
	queue   datastore.TaskQueue
}

func NewServer(ctx *common.Context, store *datastore.Store, queue datastore.TaskQueue) *Server {
	return &Server{
		context: ctx,
		store:   store,
		queue:   queue,
	}
}

// Handler returns the http handler serving
// POST /api/v1/dip/{uuid}/stored.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dip/", server.handleDIPStored)
	return mux
}

// ListenAndServe blocks serving the webhook API on the configured
// address.
func (server *Server) ListenAndServe() error {
	httpServer := &http.Server{
		Addr:         server.context.Config.WebhookAddr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	server.context.Logger.Infof("Webhook server listening on %s", httpServer.Addr)
	return httpServer.ListenAndServe()
}

type storedRequest struct {
	DownloadURL string `json:"download_url"`
}

func (server *Server) handleDIPStored(w http.ResponseWriter, r *http.Request) {
	dipUUID, ok := parseStoredPath(r.URL.Path)
	if !ok {
		respond(w, http.StatusNotFound, "detail", "Not found.")
		return
	}
	if r.Method != http.MethodPost {
		respond(w, http.StatusMethodNotAllowed, "detail",
			fmt.Sprintf("Method %q not allowed.", r.Method))
		return
	}
	if !server.authorized(r) {
		respond(w, http.StatusUnauthorized, "detail", "Invalid token.")
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		respond(w, http.StatusForbidden, "detail", "Origin not set in the request headers.")
		return
	}
	if _, ok := server.context.Config.SSHosts[origin]; !ok {
		respond(w, http.StatusForbidden, "detail",
			fmt.Sprintf("SS host not configured for Origin: %s", origin))
		return
	}

	body := &storedRequest{}
	if r.Body != nil {
		// An empty or malformed body just means no download_url.
		json.NewDecoder(r.Body).Decode(body)
	}
	downloadURL := body.DownloadURL
	if downloadURL == "" {
		downloadURL = fmt.Sprintf("%s/api/v2/file/%s/download/", origin, dipUUID)
	}

	existing, err := server.store.GetDIPBySSUUID(dipUUID)
	if err != nil {
		server.context.Logger.Errorf("Could not check for existing DIP %s: %v", dipUUID, err)
		respond(w, http.StatusInternalServerError, "detail", "Internal error.")
		return
	}
	if existing != nil {
		respond(w, http.StatusUnprocessableEntity, "detail",
			fmt.Sprintf("A DIP already exists with the same UUID: %s", dipUUID))
		return
	}

	dip := &archive.DIP{
		SSUUID:        dipUUID,
		SSHostURL:     origin,
		SSDownloadURL: downloadURL,
		DC:            &archive.DublinCore{Identifier: dipUUID},
		ImportStatus:  constants.ImportPending,
	}
	if err = server.store.SaveDIP(context.Background(), dip); err != nil {
		server.context.Logger.Errorf("Could not create DIP %s: %v", dipUUID, err)
		respond(w, http.StatusInternalServerError, "detail", "Internal error.")
		return
	}
	err = server.queue.Enqueue(constants.TopicDIPImport, strconv.FormatUint(uint64(dip.ID), 10))
	if err != nil {
		server.context.Logger.Errorf("Could not queue import of DIP %d: %v", dip.ID, err)
		respond(w, http.StatusInternalServerError, "detail", "Internal error.")
		return
	}
	server.context.Logger.Infof("DIP stored event accepted: %s (DIP %d)", dipUUID, dip.ID)
	respond(w, http.StatusAccepted, "message",
		fmt.Sprintf("DIP stored event accepted: %s", dipUUID))
}

func (server *Server) authorized(r *http.Request) bool {
	token := server.context.Config.WebhookToken
	if token == "" {
		return false
	}
	expected := fmt.Sprintf("Token %s", token)
	return subtle.ConstantTimeCompare(
		[]byte(r.Header.Get("Authorization")), []byte(expected)) == 1
}

// parseStoredPath extracts the package UUID from
// /api/v1/dip/{uuid}/stored.
func parseStoredPath(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/dip/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "stored" {
		return "", false
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func respond(w http.ResponseWriter, status int, key, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{key: message})
}
