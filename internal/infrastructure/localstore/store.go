// Package localstore serves artwork and shipping labels from a directory,
// for shops that sync their Drive folder to disk or run without network.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"OrdersParser/internal/domain"
	"OrdersParser/internal/ports"
)

// Store is a FileStore and LabelUploader over a local directory tree.
type Store struct {
	root      string
	labelsDir string
	logger    *slog.Logger
}

var (
	_ ports.FileStore     = (*Store)(nil)
	_ ports.LabelUploader = (*Store)(nil)
)

// New roots the store at root; labels are picked up from labelsDir.
func New(root, labelsDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, labelsDir: labelsDir, logger: logger.With("component", "localstore")}
}

// Search walks the tree and returns files whose base name matches the query.
func (s *Store) Search(ctx context.Context, query domain.FileQuery) ([]domain.CandidateFile, error) {
	var out []domain.CandidateFile
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !query.Match(d.Name()) {
			return nil
		}
		rel, _ := filepath.Rel(s.root, path)
		out = append(out, domain.CandidateFile{ID: filepath.ToSlash(rel), Name: d.Name(), Link: fileURL(path)})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", domain.ErrFileStoreUnavailable, s.root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UploadLabel moves {labelsDir}/{orderID}.pdf into the store root.
func (s *Store) UploadLabel(_ context.Context, orderID string) (string, error) {
	id := strings.TrimSpace(orderID)
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || id == ".." {
		return "", fmt.Errorf("invalid order id %q for label lookup", orderID)
	}
	src := filepath.Join(s.labelsDir, id+".pdf")
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrLabelNotFound
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create store root: %w", err)
	}
	dst := filepath.Join(s.root, id+".pdf")
	if err := moveFile(src, dst); err != nil {
		return "", fmt.Errorf("move label %s: %w", id, err)
	}
	s.logger.Info("label stored", "order_id", id, "path", dst)
	return fileURL(dst), nil
}

// moveFile renames, falling back to copy+remove across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(src)
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
