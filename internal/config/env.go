package config

import (
	"errors"
	"fmt"
)

const minSecretLength = 32

// Validate reports settings the process must not start with.
func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minSecretLength))
	}
	switch c.MediaBackend {
	case "local":
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for local media"))
		}
	case "s3":
		if c.S3Bucket == "" || c.S3Region == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_REGION are required for s3 media"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend))
	}
	if (c.AdminPhone == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_PHONE and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}
