package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var extToType = map[string]string{
	".xlsx":    "Workbook",
	".xlsm":    "Workbook",
	".geojson": "GeoJSON",
	".json":    "GeoJSON",
	".duckdb":  "DuckDB",
}

// SourceService lists the input files of the data directory.
type SourceService struct {
	dir    string
	active map[string]bool
}

// NewSourceService creates a source service over dir. active names the files
// the running dataset was loaded from.
func NewSourceService(dir string, active ...string) *SourceService {
	s := &SourceService{dir: dir, active: make(map[string]bool)}
	for _, p := range active {
		if abs, err := filepath.Abs(p); err == nil {
			s.active[abs] = true
		}
	}
	return s
}

// List returns the recognised files, sorted by name. A missing directory is
// an empty list.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, err
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileType, ok := extToType[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		path, _ := filepath.Abs(filepath.Join(s.dir, entry.Name()))
		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
			Active:   s.active[path],
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Dir returns the listed directory.
func (s *SourceService) Dir() string {
	return s.dir
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
