package detect

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aegisops/sentinel/pkg/model"
)

// persist serializes result to <cache_dir>/<detect_id>.json using a
// write-temp-then-rename so a reader never observes a partially written
// file. Writes are already serialized by RunDetection's single-flight
// group — there is at most one in-flight collection per agent — so no
// additional OS-level file lock is needed to prevent interleaved writers.
// Persistence failures are logged, never propagated: the cache is a
// convenience for process restarts, not the source of truth.
func (a *Agent) persist(result *model.DetectResult) {
	if a.cacheDir == "" {
		return
	}

	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		slog.Error("detect cache: failed to create cache directory", "dir", a.cacheDir, "error", err)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("detect cache: failed to marshal result", "detect_id", result.DetectID, "error", err)
		return
	}

	finalPath := filepath.Join(a.cacheDir, result.DetectID+".json")
	tmpFile, err := os.CreateTemp(a.cacheDir, result.DetectID+".*.tmp")
	if err != nil {
		slog.Error("detect cache: failed to create temp file", "detect_id", result.DetectID, "error", err)
		return
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		slog.Error("detect cache: failed to write temp file", "detect_id", result.DetectID, "error", err)
		return
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		slog.Error("detect cache: failed to sync temp file", "detect_id", result.DetectID, "error", err)
		return
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		slog.Error("detect cache: failed to close temp file", "detect_id", result.DetectID, "error", err)
		return
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		slog.Error("detect cache: failed to rename into place", "detect_id", result.DetectID, "error", err)
	}
}

// LoadFromDisk reads a previously persisted DetectResult by its detect_id.
// Used at startup or for replay; RunDetection never calls this itself.
func LoadFromDisk(cacheDir, detectID string) (*model.DetectResult, error) {
	data, err := os.ReadFile(filepath.Join(cacheDir, detectID+".json"))
	if err != nil {
		return nil, err
	}

	var result model.DetectResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
