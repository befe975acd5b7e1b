// Package blob selects a blob storage backend for export artifacts.
package blob

import (
	"context"
	"fmt"
	"os"

	"speciescore/internal/infra/blob/core"
	"speciescore/internal/infra/blob/fs"
	"speciescore/internal/infra/blob/memory"
	"speciescore/internal/infra/blob/s3"
)

// Store aliases core.Store for callers that only need the factory.
type Store = core.Store

// Open selects a Store implementation using environment variables.
//
//	SPECIESCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	SPECIESCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("SPECIESCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(core.DriverFilesystem)
	}
	switch core.Driver(driver) {
	case core.DriverFilesystem:
		return fs.New(os.Getenv("SPECIESCORE_BLOB_FS_ROOT"))
	case core.DriverS3:
		return s3.OpenFromEnv(ctx)
	case core.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
