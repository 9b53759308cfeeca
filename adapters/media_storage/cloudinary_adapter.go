package media_storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const (
	resourceImage = "image"
	// resourceAuto lets Cloudinary store non-image files such as workbooks as raw assets.
	resourceAuto = "auto"

	thumbnailTransformation = "c_limit,w_400"
)

type CloudinaryAdapter struct {
	cld          *cloudinary.Cloudinary
	resourceType string
	logger       logger.Logger
}

var (
	_ service.Uploader      = (*CloudinaryAdapter)(nil)
	_ service.ImageVariants = (*CloudinaryAdapter)(nil)
)

func newCloudinary(cfg config.Config) (*cloudinary.Cloudinary, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return cld, nil
}

// NewCloudinaryAdapter returns an adapter that stores product images and builds their variants.
func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (*CloudinaryAdapter, error) {
	cld, err := newCloudinary(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("connect Cloudinary successfully.", zap.String("cloud", cfg.Cloudinary.CloudName))
	return &CloudinaryAdapter{cld: cld, resourceType: resourceImage, logger: log}, nil
}

// NewCloudinaryFileAdapter stores arbitrary files such as export workbooks.
func NewCloudinaryFileAdapter(cfg config.Config, log logger.Logger) (service.Uploader, error) {
	cld, err := newCloudinary(cfg)
	if err != nil {
		return nil, err
	}
	return &CloudinaryAdapter{cld: cld, resourceType: resourceAuto, logger: log}, nil
}

func (a *CloudinaryAdapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	overwrite := true
	uploadParams := uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		ResourceType: a.resourceType,
		Overwrite:    &overwrite,
	}
	result, err := a.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	a.logger.Debug("Uploaded to Cloudinary", zap.String("public_id", result.PublicID))
	return result.SecureURL, nil
}

func (a *CloudinaryAdapter) Delete(ctx context.Context, publicID string) error {
	_, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: a.resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}

func (a *CloudinaryAdapter) ThumbnailURL(publicID string) (string, error) {
	imgAsset, err := a.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("init cloudinary asset failed: %w", err)
	}
	imgAsset.Transformation = thumbnailTransformation
	thumbURL, err := imgAsset.String()
	if err != nil {
		return "", fmt.Errorf("build thumbnail URL failed: %w", err)
	}
	return thumbURL, nil
}
