package filestore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const cloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// CloudinaryStore uploads files through Cloudinary's signed REST API.
type CloudinaryStore struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	baseURL   string
	client    *http.Client
	now       func() time.Time
}

var _ Store = &CloudinaryStore{}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) *CloudinaryStore {
	return &CloudinaryStore{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
		baseURL:   cloudinaryBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		now: time.Now,
	}
}

type cloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// resourceTypeFor picks Cloudinary's resource type bucket. Images go to
// "image", everything else (pdf, docx, csv, txt) is stored as "raw".
func resourceTypeFor(name string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".") {
	case "jpg", "jpeg", "png", "gif", "webp":
		return "image"
	default:
		return "raw"
	}
}

// signParams builds the SHA1 signature Cloudinary expects: the params
// sorted by key, joined as key=value with '&', with the secret appended.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func (s *CloudinaryStore) Upload(ctx context.Context, data []byte, name string) (string, string, error) {
	resourceType := resourceTypeFor(name)
	publicID := uuid.NewString()
	if resourceType == "raw" {
		// Raw files keep their extension in the public id so the
		// delivered URL stays openable.
		if ext := filepath.Ext(name); ext != "" {
			publicID += ext
		}
	}
	timestamp := fmt.Sprintf("%d", s.now().Unix())

	signed := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	if s.folder != "" {
		signed["folder"] = s.folder
	}
	signature := signParams(signed, s.apiSecret)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", "", fmt.Errorf("write form file: %w", err)
	}
	fields := map[string]string{
		"api_key":   s.apiKey,
		"timestamp": timestamp,
		"public_id": publicID,
		"signature": signature,
	}
	if s.folder != "" {
		fields["folder"] = s.folder
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return "", "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/upload", s.baseURL, s.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read response: %w", err)
	}

	var uploadResp cloudinaryUploadResponse
	if err := json.Unmarshal(bodyBytes, &uploadResp); err != nil {
		return "", "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(bodyBytes)
		if uploadResp.Error != nil {
			msg = uploadResp.Error.Message
		}
		return "", "", fmt.Errorf("cloudinary upload error (status %d): %s", resp.StatusCode, msg)
	}

	return uploadResp.SecureURL, resourceType + ":" + uploadResp.PublicID, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, storageID string) (bool, error) {
	resourceType := "raw"
	publicID := storageID
	if parts := strings.SplitN(storageID, ":", 2); len(parts) == 2 {
		resourceType, publicID = parts[0], parts[1]
	}

	timestamp := fmt.Sprintf("%d", s.now().Unix())
	signature := signParams(map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}, s.apiSecret)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"public_id": publicID,
		"api_key":   s.apiKey,
		"timestamp": timestamp,
		"signature": signature,
	} {
		if err := writer.WriteField(k, v); err != nil {
			return false, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return false, fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/destroy", s.baseURL, s.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	var destroyResp cloudinaryDestroyResponse
	if err := json.Unmarshal(bodyBytes, &destroyResp); err != nil {
		return false, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(bodyBytes)
		if destroyResp.Error != nil {
			msg = destroyResp.Error.Message
		}
		return false, fmt.Errorf("cloudinary destroy error (status %d): %s", resp.StatusCode, msg)
	}

	switch destroyResp.Result {
	case "ok":
		return true, nil
	case "not found":
		// Already gone, nothing to do.
		return false, nil
	default:
		return false, fmt.Errorf("cloudinary destroy returned %q", destroyResp.Result)
	}
}
