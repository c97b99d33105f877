package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const localPrefix = "uploads/products/"

// LocalStore keeps images under <root>/uploads/products. References are the
// slash separated path relative to root.
type LocalStore struct {
	root string
	log  *zap.Logger
}

func NewLocalStore(root string, log *zap.Logger) (*LocalStore, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(localPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStore{root: root, log: log}, nil
}

func (s *LocalStore) Save(ctx context.Context, image Image, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := localPrefix + objectName(image)
	fullPath := filepath.Join(s.root, filepath.FromSlash(ref))

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write image: %w", err)
	}

	s.log.Debug("image stored", zap.String("path", fullPath), zap.Int("bytes", len(data)))
	return ref, nil
}

// Delete refuses references outside the uploads directory.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if target == "" {
		return nil
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the file path a reference points to.
func (s *LocalStore) Path(ref string) (string, error) {
	return s.resolve(ref)
}

func (s *LocalStore) resolve(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", nil
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, "/")), "/")
	if !strings.HasPrefix(cleanRel, localPrefix) {
		return "", fmt.Errorf("refusing non-upload path: %s", ref)
	}

	target := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(cleanRel)))
	if !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing path outside upload root: %s", ref)
	}
	return target, nil
}
