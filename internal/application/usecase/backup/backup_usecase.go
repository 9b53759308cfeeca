package backup

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const Folder = "backups/database"

var tracer = otel.Tracer("backup_usecase")

// Dumper writes a database dump of dsn to out.
type Dumper func(ctx context.Context, dsn string, out *bytes.Buffer) error

// PgDump shells out to pg_dump in custom format.
func PgDump(ctx context.Context, dsn string, out *bytes.Buffer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+dsn, "--format=c")
	cmd.Stdout = out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump: %w: %s", err, stderr.String())
	}
	return nil
}

type Result struct {
	URL      string
	PublicID string
	Size     int
}

type BackupUseCase struct {
	dsn      string
	dump     Dumper
	uploader service.Uploader
	logger   logger.Logger
	now      func() time.Time
}

func NewBackupUseCase(dsn string, dump Dumper, uploader service.Uploader, log logger.Logger) *BackupUseCase {
	return &BackupUseCase{
		dsn:      dsn,
		dump:     dump,
		uploader: uploader,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *BackupUseCase) Execute(ctx context.Context) (*Result, error) {
	ctx, span := tracer.Start(ctx, "BackupUseCase.Execute")
	defer span.End()

	uc.logger.Info("starting database backup")

	var out bytes.Buffer
	if err := uc.dump(ctx, uc.dsn, &out); err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("database dump failed", err)
	}

	publicID := fmt.Sprintf("backup-%s.dump", uc.now().UTC().Format("2006-01-02_15-04-05"))
	size := out.Len()

	url, err := uc.uploader.Upload(ctx, &out, Folder, publicID)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to upload backup", err)
	}

	uc.logger.Info("database backup uploaded",
		zap.String("url", url),
		zap.String("public_id", publicID),
		zap.Int("bytes", size),
	)
	return &Result{URL: url, PublicID: publicID, Size: size}, nil
}
