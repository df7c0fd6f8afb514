// Package storage persists uploaded profile images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	DriverDisk = "disk"
	DriverS3   = "s3"
)

var ErrInvalidLocation = errors.New("location does not belong to this storage")

// ItfStorage stores an object under name and returns the location clients use
// to fetch it. Delete accepts a location previously returned by Save.
type ItfStorage interface {
	Save(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
}

// New selects a backend from UPLOAD_DRIVER. Disk is the default.
func New(driver, dir string) (ItfStorage, error) {
	switch driver {
	case "", DriverDisk:
		return NewDisk(dir, "/uploads")
	case DriverS3:
		return NewS3(os.Getenv("AWS_BUCKET_NAME"))
	default:
		return nil, fmt.Errorf("unknown upload driver %q", driver)
	}
}
