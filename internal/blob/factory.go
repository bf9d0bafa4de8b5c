package blob

import (
	"context"
	"fmt"
	"os"

	"reflcore/internal/infra/blob/fs"
	"reflcore/internal/infra/blob/memory"
	"reflcore/internal/infra/blob/s3"
)

// Open selects a blob.Store implementation using environment variables.
//
//	REFLCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	REFLCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3-specific variables documented in the s3 driver)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("REFLCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(os.Getenv("REFLCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
