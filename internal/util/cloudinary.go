package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"inkwell/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// MaxImageSize caps cover uploads.
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

type CloudinaryClient struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryClient(cfg *config.Config) (*CloudinaryClient, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryClient{
		cld:    cld,
		folder: cfg.CloudinaryFolder,
	}, nil
}

// UploadImage stores the bytes as they are and returns the secure URL.
// The subfolder groups covers by variant.
func (c *CloudinaryClient) UploadImage(ctx context.Context, file *FileData, subfolder string) (string, error) {
	folder := c.folder
	if subfolder != "" {
		folder = strings.TrimSuffix(folder, "/") + "/" + subfolder
	}

	result, err := c.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		Folder:       folder,
		PublicID:     uuid.New().String(),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("error uploading to cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	return result.SecureURL, nil
}

// FileData represents file data in memory
type FileData struct {
	Data     []byte
	Filename string
	MimeType string
}

// ReadFileFromReader reads an image upload, rejecting unknown extensions and
// anything larger than MaxImageSize.
func ReadFileFromReader(reader io.Reader, filename string) (*FileData, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := allowedImageTypes[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported image format: %s", ext)
	}

	data, err := io.ReadAll(io.LimitReader(reader, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	return &FileData{
		Data:     data,
		Filename: filename,
		MimeType: mimeType,
	}, nil
}
