package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/endfieldpass/backend/internal/pkg/gerr"
)

const (
	googleDriveFilesURL  = "https://www.googleapis.com/drive/v3/files"
	googleDriveUploadURL = "https://www.googleapis.com/upload/drive/v3/files"
	yandexResourcesURL   = "https://cloud-api.yandex.net/v1/disk/resources"
)

// cloudGet performs an idempotent provider request with a few retries on
// transport failures. Provider-level errors (any HTTP status) never retry.
func (s *CloudService) cloudGet(ctx context.Context, rawURL string, params url.Values, headers map[string]string, action string) ([]byte, error) {
	if params != nil {
		rawURL += "?" + params.Encode()
	}

	var body []byte
	err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(io.LimitReader(resp.Body, directImportMaxBytes+1))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return retry.Unrecoverable(cloudHTTPError(resp.StatusCode, body, action))
		}
		return nil
	}, retry.Attempts(3), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		var cloudErr *gerr.Error
		if errors.As(err, &cloudErr) {
			return nil, cloudErr
		}
		return nil, gerr.ErrCloud.Msg("%s: %s", action, err)
	}
	return body, nil
}

// cloudDo performs a single-attempt mutating provider request.
func (s *CloudService) cloudDo(ctx context.Context, method, rawURL string, params url.Values, headers map[string]string, payload []byte, action string) ([]byte, int, error) {
	if params != nil {
		rawURL += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, 0, errors.Wrap(err, "build cloud request")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, gerr.ErrCloud.Msg("%s: %s", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, directImportMaxBytes+1))
	if err != nil {
		return nil, resp.StatusCode, gerr.ErrCloud.Msg("%s: %s", action, err)
	}
	return body, resp.StatusCode, nil
}

func googleHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func googleEscapeQuery(value string) string {
	return strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), "'", `\'`)
}

// googleFolderID looks the sync folder up, creating it when missing.
func (s *CloudService) googleFolderID(ctx context.Context, token string) (string, error) {
	params := url.Values{}
	params.Set("q", "name='"+googleEscapeQuery(cloudSyncFolderName)+"' and mimeType='application/vnd.google-apps.folder' and trashed=false")
	params.Set("fields", "files(id,name)")
	params.Set("pageSize", "1")

	body, err := s.cloudGet(ctx, googleDriveFilesURL, params, googleHeaders(token), "failed to list Google Drive folders")
	if err != nil {
		return "", err
	}
	if files := gjson.GetBytes(body, "files").Array(); len(files) > 0 {
		if id := files[0].Get("id").String(); id != "" {
			return id, nil
		}
	}

	metadata, err := json.Marshal(map[string]string{
		"name":     cloudSyncFolderName,
		"mimeType": "application/vnd.google-apps.folder",
	})
	if err != nil {
		return "", errors.Wrap(err, "encode folder metadata")
	}

	headers := googleHeaders(token)
	headers["Content-Type"] = "application/json"
	createParams := url.Values{}
	createParams.Set("fields", "id,name")

	body, status, err := s.cloudDo(ctx, http.MethodPost, googleDriveFilesURL, createParams, headers, metadata, "failed to create Google Drive folder")
	if err != nil {
		return "", err
	}
	if status >= 300 {
		return "", cloudHTTPError(status, body, "failed to create Google Drive folder")
	}
	folderID := gjson.GetBytes(body, "id").String()
	if folderID == "" {
		return "", gerr.ErrCloud.Msg("Google Drive did not return a created folder id")
	}
	return folderID, nil
}

// googleFindSyncFile locates the snapshot file in the sync folder, falling
// back to the newest JSON file there.
func (s *CloudService) googleFindSyncFile(ctx context.Context, token, folderID string) (string, error) {
	params := url.Values{}
	params.Set("q", "'"+googleEscapeQuery(folderID)+"' in parents and name='"+googleEscapeQuery(cloudSyncFileName)+"' and trashed=false")
	params.Set("fields", "files(id,name,modifiedTime)")
	params.Set("orderBy", "modifiedTime desc")
	params.Set("pageSize", "1")

	body, err := s.cloudGet(ctx, googleDriveFilesURL, params, googleHeaders(token), "failed to list Google Drive files")
	if err != nil {
		return "", err
	}
	if files := gjson.GetBytes(body, "files").Array(); len(files) > 0 {
		return files[0].Get("id").String(), nil
	}

	params = url.Values{}
	params.Set("q", "'"+googleEscapeQuery(folderID)+"' in parents and trashed=false and mimeType!='application/vnd.google-apps.folder'")
	params.Set("fields", "files(id,name,modifiedTime)")
	params.Set("orderBy", "modifiedTime desc")
	params.Set("pageSize", "20")

	body, err = s.cloudGet(ctx, googleDriveFilesURL, params, googleHeaders(token), "failed to list Google Drive files")
	if err != nil {
		return "", err
	}
	for _, file := range gjson.GetBytes(body, "files").Array() {
		if strings.HasSuffix(strings.ToLower(file.Get("name").String()), ".json") {
			return file.Get("id").String(), nil
		}
	}
	return "", nil
}

// googleUpload creates or overwrites the snapshot file with a multipart
// upload.
func (s *CloudService) googleUpload(ctx context.Context, token string, blob []byte) (*CloudSyncResult, error) {
	folderID, err := s.googleFolderID(ctx, token)
	if err != nil {
		return nil, err
	}
	fileID, err := s.googleFindSyncFile(ctx, token, folderID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{"name": cloudSyncFileName}
	if fileID == "" {
		metadata["parents"] = []string{folderID}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "encode file metadata")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, errors.Wrap(err, "build multipart metadata")
	}
	if _, err := metaPart.Write(metadataJSON); err != nil {
		return nil, errors.Wrap(err, "write multipart metadata")
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "application/json")
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return nil, errors.Wrap(err, "build multipart body")
	}
	if _, err := filePart.Write(blob); err != nil {
		return nil, errors.Wrap(err, "write multipart body")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "finish multipart body")
	}

	headers := googleHeaders(token)
	headers["Content-Type"] = "multipart/related; boundary=" + writer.Boundary()
	params := url.Values{}
	params.Set("uploadType", "multipart")
	params.Set("fields", "id,name,webViewLink,modifiedTime")

	method := http.MethodPost
	uploadURL := googleDriveUploadURL
	if fileID != "" {
		method = http.MethodPatch
		uploadURL += "/" + fileID
	}

	body, status, err := s.cloudDo(ctx, method, uploadURL, params, headers, buf.Bytes(), "failed to sync JSON file with Google Drive")
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, cloudHTTPError(status, body, "failed to sync JSON file with Google Drive")
	}

	result := &CloudSyncResult{
		Provider:   CloudProviderGoogleDrive,
		FolderName: cloudSyncFolderName,
		FileName:   cloudSyncFileName,
		FileID:     gjson.GetBytes(body, "id").String(),
		Location:   gjson.GetBytes(body, "webViewLink").String(),
	}
	if result.FileID == "" {
		result.FileID = fileID
	}
	if name := gjson.GetBytes(body, "name").String(); name != "" {
		result.FileName = name
	}
	return result, nil
}

func (s *CloudService) googleDownload(ctx context.Context, token string) ([]byte, error) {
	folderID, err := s.googleFolderID(ctx, token)
	if err != nil {
		return nil, err
	}
	fileID, err := s.googleFindSyncFile(ctx, token, folderID)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, gerr.ErrCloud.Msg("no JSON file found in the Google Drive sync folder")
	}

	params := url.Values{}
	params.Set("alt", "media")
	return s.cloudGet(ctx, googleDriveFilesURL+"/"+fileID, params, googleHeaders(token), "failed to download JSON file from Google Drive")
}

func yandexHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "OAuth " + token}
}

func yandexFilePath() string {
	return "app:/" + cloudSyncFolderName + "/" + cloudSyncFileName
}

// yandexEnsureFolder creates the app sync folder; an already-exists conflict
// is fine.
func (s *CloudService) yandexEnsureFolder(ctx context.Context, token string) error {
	params := url.Values{}
	params.Set("path", "app:/"+cloudSyncFolderName)

	body, status, err := s.cloudDo(ctx, http.MethodPut, yandexResourcesURL, params, yandexHeaders(token), nil, "failed to create Yandex Disk folder")
	if err != nil {
		return err
	}
	if status == http.StatusCreated || status == http.StatusConflict {
		return nil
	}
	if status >= 300 {
		return cloudHTTPError(status, body, "failed to create Yandex Disk folder")
	}
	return nil
}

func (s *CloudService) yandexUpload(ctx context.Context, token string, blob []byte) (*CloudSyncResult, error) {
	if err := s.yandexEnsureFolder(ctx, token); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("path", yandexFilePath())
	params.Set("overwrite", "true")

	meta, err := s.cloudGet(ctx, yandexResourcesURL+"/upload", params, yandexHeaders(token), "failed to get Yandex Disk upload URL")
	if err != nil {
		return nil, err
	}
	href := gjson.GetBytes(meta, "href").String()
	if href == "" {
		return nil, gerr.ErrCloud.Msg("Yandex Disk did not return an upload URL")
	}

	body, status, err := s.cloudDo(ctx, http.MethodPut, href, nil, nil, blob, "failed to upload JSON file to Yandex Disk")
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, cloudHTTPError(status, body, "failed to upload JSON file to Yandex Disk")
	}

	return &CloudSyncResult{
		Provider:   CloudProviderYandexDisk,
		FolderName: cloudSyncFolderName,
		FileName:   cloudSyncFileName,
		Path:       yandexFilePath(),
	}, nil
}

func (s *CloudService) yandexDownload(ctx context.Context, token string) ([]byte, error) {
	if err := s.yandexEnsureFolder(ctx, token); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("path", yandexFilePath())

	meta, err := s.cloudGet(ctx, yandexResourcesURL+"/download", params, yandexHeaders(token), "failed to get Yandex Disk download URL")
	if err != nil {
		return nil, err
	}
	href := gjson.GetBytes(meta, "href").String()
	if href == "" {
		return nil, gerr.ErrCloud.Msg("Yandex Disk did not return a download URL")
	}

	return s.cloudGet(ctx, href, nil, nil, "failed to download JSON file from Yandex Disk")
}
