package network

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/op/go-logging"
)

// StorageServiceClient supports the few calls we need from the
// Archivematica Storage Service API: package info and single-file
// extraction. Authentication uses the ApiKey header scheme.
type StorageServiceClient struct {
	HostURL    string
	APIUser    string
	APIKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// PackageInfo is the subset of the Storage Service package record
// that the import pipeline cares about.
type PackageInfo struct {
	UUID        string `json:"uuid"`
	CurrentPath string `json:"current_path"`
	PackageType string `json:"package_type"`
	Status      string `json:"status"`
	Size        int64  `json:"size"`
}

// NewStorageServiceClient creates a new client for one SS host. The
// credentials come from Config.SSHosts.
func NewStorageServiceClient(hostURL, apiUser, apiKey string, logger *logging.Logger) *StorageServiceClient {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
	return &StorageServiceClient{
		HostURL:    hostURL,
		APIUser:    apiUser,
		APIKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// PackageInfo returns the Storage Service record for the package with
// the specified UUID.
func (client *StorageServiceClient) PackageInfo(packageUUID string) (*PackageInfo, error) {
	absoluteURL := fmt.Sprintf("%s/api/v2/file/%s?format=json",
		client.HostURL, url.PathEscape(packageUUID))
	resp, err := client.doGet(absoluteURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, NewHttpError(
			fmt.Sprintf("Could not get package info for %s", packageUUID),
			nil, "GET", absoluteURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	info := &PackageInfo{}
	err = json.Unmarshal(data, info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// DownloadFile streams one file out of a stored package to destPath
// using the extract_file endpoint. Param relativePath is the path of
// the file inside the package, e.g. "<dip_dir>/METS.<uuid>.xml".
func (client *StorageServiceClient) DownloadFile(packageUUID, relativePath, destPath string) error {
	absoluteURL := fmt.Sprintf("%s/api/v2/file/%s/extract_file/?relative_path_to_file=%s",
		client.HostURL, url.PathEscape(packageUUID), url.QueryEscape(relativePath))
	resp, err := client.doGet(absoluteURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewHttpError(
			fmt.Sprintf("Could not extract %s from package %s", relativePath, packageUUID),
			nil, "GET", absoluteURL, resp.StatusCode)
	}
	destFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer destFile.Close()
	_, err = io.Copy(destFile, resp.Body)
	if err != nil {
		// Don't leave a half-written METS file behind.
		os.Remove(destPath)
		return err
	}
	client.logger.Infof("Downloaded %s from %s to %s", relativePath, client.HostURL, destPath)
	return nil
}

func (client *StorageServiceClient) doGet(absoluteURL string) (*http.Response, error) {
	req, err := http.NewRequest("GET", absoluteURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization",
		fmt.Sprintf("ApiKey %s:%s", client.APIUser, client.APIKey))
	return client.httpClient.Do(req)
}
