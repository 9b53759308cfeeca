package media_storage

import (
	"context"
	"fmt"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const (
	DriverCloudinary = "cloudinary"
	DriverS3         = "s3"
)

// NewFileUploader picks the backend for generated files from storage.driver.
func NewFileUploader(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	switch cfg.Storage.Driver {
	case DriverCloudinary, "":
		return NewCloudinaryFileAdapter(cfg, log)
	case DriverS3:
		return NewS3Adapter(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
