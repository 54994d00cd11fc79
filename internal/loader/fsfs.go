package loader

import (
	"context"
	"errors"
	"io/fs"
)

func loadFromFS(ctx context.Context, files fs.FS, name string, limit int64) ([]byte, error) {
	if name == "" || name == "." {
		return nil, errors.New("fs path is required")
	}
	if files == nil {
		return nil, errors.New("fs is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := files.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return readLimited(f, limit)
}
