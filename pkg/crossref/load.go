package crossref

import (
	"context"
	"errors"
	"fmt"

	"github.com/ringmast4r/project147/pkg/loader"
	"github.com/ringmast4r/project147/pkg/logger"
)

// Load reads and merges every file. Missing files are skipped with a
// warning as long as at least one file could be read.
func Load(ctx context.Context, files ...loader.DataFile) ([]Record, error) {
	if len(files) == 0 {
		return nil, errors.New("no cross-reference files configured")
	}

	sets := make([][]Record, 0, len(files))
	var missing []string
	for _, f := range files {
		content, err := f.Read(ctx)
		if errors.Is(err, loader.ErrNotFound) {
			logger.Warn("[CrossRef] File not found, skipping", "path", f.Path)
			missing = append(missing, f.Path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f.Path, err)
		}

		records, err := ParseBytes(content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Path, err)
		}
		logger.Debug("[CrossRef] Parsed file", "path", f.Path, "records", len(records))
		sets = append(sets, records)
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("cross-reference files %v: %w", missing, loader.ErrNotFound)
	}

	merged := Merge(sets...)
	logger.Info("[CrossRef] Loaded cross-references", "files", len(sets), "records", len(merged))
	return merged, nil
}
