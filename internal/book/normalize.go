package book

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Magic opens every compliant legacy book file.
var Magic = []byte("BOO!")

var (
	ErrShortHeader = errors.New("book header too short")
	ErrSameFile    = errors.New("normalized copy would overwrite its source")
)

// headerLen is the number of leading bytes a misplaced header occupies.
const headerLen = 6

// NormalizeBytes returns data unchanged when it starts with Magic. Otherwise
// it rebuilds the header as Magic, the original bytes 4-5, four zero bytes,
// then everything from offset 6 on. The result always starts with Magic, so
// normalizing it again is a no-op.
func NormalizeBytes(data []byte) ([]byte, bool, error) {
	if bytes.HasPrefix(data, Magic) {
		return data, false, nil
	}
	if len(data) < headerLen {
		return nil, false, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	out := make([]byte, 0, len(data)+len(Magic))
	out = append(out, Magic...)
	out = append(out, data[4:6]...)
	out = append(out, 0, 0, 0, 0)
	out = append(out, data[headerLen:]...)
	return out, true, nil
}

// NormalizeFile writes a corrected copy of src to dst when src lacks the
// magic marker. Canonical sources are left alone and nothing is written. The
// copy is staged in a temp file and renamed into place under a file lock, so
// concurrent writers never leave a partial dst behind.
func NormalizeFile(src, dst string) (bool, error) {
	same, err := samePath(src, dst)
	if err != nil {
		return false, err
	}
	if same {
		return false, fmt.Errorf("normalize %s: %w", src, ErrSameFile)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("read book: %w", err)
	}
	fixed, changed, err := NormalizeBytes(data)
	if err != nil {
		return false, fmt.Errorf("normalize %s: %w", src, err)
	}
	if !changed {
		return false, nil
	}
	if err := writeAtomic(dst, fixed); err != nil {
		return false, err
	}
	return true, nil
}

func writeAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(dst + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", dst, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", b, err)
	}
	if absA == absB {
		return true, nil
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}

type NormalizeReport struct {
	Fixed     []string `json:"fixed"`
	Unchanged []string `json:"unchanged"`
}

// NormalizeDir normalizes every .obk file of srcDir into dstDir.
func NormalizeDir(ctx context.Context, srcDir, dstDir string, log *zap.Logger) (NormalizeReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dirents, err := os.ReadDir(srcDir)
	if err != nil {
		return NormalizeReport{}, fmt.Errorf("read books dir: %w", err)
	}

	var (
		mu     sync.Mutex
		report NormalizeReport
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.EqualFold(filepath.Ext(name), ".obk") {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed, err := NormalizeFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name))
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if changed {
				log.Info("normalized book", zap.String("book", name))
				report.Fixed = append(report.Fixed, name)
			} else {
				log.Debug("book already canonical", zap.String("book", name))
				report.Unchanged = append(report.Unchanged, name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return NormalizeReport{}, err
	}
	sort.Strings(report.Fixed)
	sort.Strings(report.Unchanged)
	return report, nil
}
