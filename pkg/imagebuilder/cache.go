package imagebuilder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mysuperai/superai/pkg/util/console"
)

const (
	hashRecordFile         = ".hash.json"
	orchestratorRecordFile = ".orchestrator.txt"
)

type orchestratorRecord struct {
	Orchestrator Orchestrator `json:"orchestrator"`
}

// trackedFiles returns the build-relevant file names for this builder. A file
// is tracked iff the corresponding dependency descriptor was declared.
func (b *Builder) trackedFiles() []string {
	var files []string
	if len(b.requirements) > 0 {
		files = append(files, "requirements.txt")
	}
	if b.condaEnv != "" {
		files = append(files, "environment.yml")
	}
	if _, ok := b.artifacts["run"]; ok {
		files = append(files, "setup.sh")
	}
	return files
}

// trackChanges hashes the tracked files and compares them, together with the
// orchestrator, against the records of the previous build. It reports whether
// the dependency layer must be rebuilt from scratch. Records are rewritten
// unconditionally so the next run's baseline reflects this run's inputs.
func (b *Builder) trackChanges() (bool, error) {
	cacheDir := filepath.Join(b.settings.CacheRoot, b.name, b.version)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	changed := false

	hashes := map[string]string{}
	hashPath := filepath.Join(cacheDir, hashRecordFile)
	if err := readRecord(hashPath, &hashes); err != nil {
		return false, err
	}
	for _, file := range b.trackedFiles() {
		fileHash, err := hashFile(filepath.Join(b.location, file))
		if err != nil {
			return false, fmt.Errorf("failed to hash %s: %w", file, err)
		}
		if fileHash != hashes[file] {
			console.Infof("Detected changes in %s, rebuilding image", file)
			changed = true
		}
		hashes[file] = fileHash
	}
	if err := writeRecord(hashPath, hashes); err != nil {
		return false, err
	}

	var record orchestratorRecord
	recordPath := filepath.Join(cacheDir, orchestratorRecordFile)
	if err := readRecord(recordPath, &record); err != nil {
		return false, err
	}
	if record.Orchestrator != b.orchestrator {
		console.Info("Orchestrator changed, rebuilding image")
		changed = true
	}
	if err := writeRecord(recordPath, orchestratorRecord{Orchestrator: b.orchestrator}); err != nil {
		return false, err
	}

	return changed, nil
}

func hashFile(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:]), nil
}

// readRecord loads a JSON cache record, leaving v untouched when the record
// file does not exist yet (first build).
func readRecord(path string, v interface{}) error {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache record %s: %w", path, err)
	}
	if err := json.Unmarshal(contents, v); err != nil {
		return fmt.Errorf("failed to parse cache record %s: %w", path, err)
	}
	return nil
}

func writeRecord(path string, v interface{}) error {
	contents, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("failed to write cache record %s: %w", path, err)
	}
	return nil
}
