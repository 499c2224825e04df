package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const restoreStagingDir = "restore-staging"
const pendingArchiveName = "pending-restore.tar.gz"

// RestoreService stages backup archives for restore and applies them on the
// next startup, before any database connection is opened. Restores are never
// applied to a running system.
type RestoreService struct {
	client  *S3Client
	dataDir string
	log     zerolog.Logger
}

// NewRestoreService creates a new restore service. The client may be nil when
// only startup restore execution is needed.
func NewRestoreService(client *S3Client, dataDir string, log zerolog.Logger) *RestoreService {
	return &RestoreService{
		client:  client,
		dataDir: dataDir,
		log:     log.With().Str("service", "restore").Logger(),
	}
}

func (s *RestoreService) stagingPath() string {
	return filepath.Join(s.dataDir, restoreStagingDir, pendingArchiveName)
}

// StageRestore downloads a backup archive into the staging area. The restore
// itself happens on the next startup.
func (s *RestoreService) StageRestore(ctx context.Context, filename string) error {
	if s.client == nil {
		return fmt.Errorf("backup storage is not configured")
	}
	if _, ok := parseArchiveTimestamp(filename); !ok {
		return fmt.Errorf("not a backup archive: %s", filename)
	}

	if err := os.MkdirAll(filepath.Dir(s.stagingPath()), 0755); err != nil {
		return fmt.Errorf("failed to create restore staging directory: %w", err)
	}

	out, err := os.Create(s.stagingPath())
	if err != nil {
		return fmt.Errorf("failed to create staged archive: %w", err)
	}
	defer out.Close()

	if err := s.client.Download(ctx, filename, out); err != nil {
		os.Remove(s.stagingPath())
		return fmt.Errorf("failed to download backup %s: %w", filename, err)
	}

	s.log.Info().Str("filename", filename).Msg("Restore staged, will apply on next startup")
	return nil
}

// CheckPendingRestore reports whether a staged restore is waiting.
func (s *RestoreService) CheckPendingRestore() (bool, error) {
	_, err := os.Stat(s.stagingPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check staged restore: %w", err)
	}
	return true, nil
}

// ExecuteStagedRestore extracts the staged archive, verifies every database
// file against the manifest checksums, and swaps the files into the data dir.
// Must be called before database connections are opened.
func (s *RestoreService) ExecuteStagedRestore() error {
	extractDir := filepath.Join(s.dataDir, restoreStagingDir, "extracted")
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(filepath.Join(s.dataDir, restoreStagingDir))

	if err := extractArchive(s.stagingPath(), extractDir); err != nil {
		return fmt.Errorf("failed to extract staged archive: %w", err)
	}

	metadataBytes, err := os.ReadFile(filepath.Join(extractDir, "backup-metadata.json"))
	if err != nil {
		return fmt.Errorf("staged archive has no manifest: %w", err)
	}
	var metadata BackupMetadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return fmt.Errorf("failed to parse backup manifest: %w", err)
	}

	// Verify everything before touching a single live file.
	for _, db := range metadata.Databases {
		extracted := filepath.Join(extractDir, db.Filename)
		checksum, err := calculateChecksum(extracted)
		if err != nil {
			return fmt.Errorf("failed to checksum restored %s: %w", db.Name, err)
		}
		if checksum != db.Checksum {
			return fmt.Errorf("checksum mismatch for %s: manifest %s, file %s", db.Name, db.Checksum, checksum)
		}
	}

	for _, db := range metadata.Databases {
		target := filepath.Join(s.dataDir, db.Filename)
		if err := os.Rename(filepath.Join(extractDir, db.Filename), target); err != nil {
			return fmt.Errorf("failed to restore %s: %w", db.Name, err)
		}
		// Stale WAL files would override the restored state.
		os.Remove(target + "-wal")
		os.Remove(target + "-shm")
		s.log.Info().Str("database", db.Name).Msg("Database restored")
	}

	s.log.Info().Str("backup_time", metadata.Timestamp.String()).Msg("Staged restore applied")
	return nil
}

// extractArchive unpacks a tar.gz into destDir. Entry names are flattened;
// the archives written by BackupService contain no directories.
func extractArchive(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gzReader, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Base(header.Name)
		if strings.HasPrefix(name, ".") {
			continue
		}

		out, err := os.Create(filepath.Join(destDir, name))
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tarReader); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}
