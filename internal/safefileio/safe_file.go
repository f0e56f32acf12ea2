package safefileio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

// MaxFileSize is the maximum allowed file size for SafeReadFile (128 MB)
const MaxFileSize = 128 * 1024 * 1024

// FileSystem abstracts the file system calls made while writing, so that tests
// can inject failures at any step.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	CreateTemp(dir, pattern string) (File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// File is the subset of *os.File used by this package.
type File interface {
	io.Writer
	Close() error
	Stat() (os.FileInfo, error)
	Sync() error
	Chmod(mode os.FileMode) error
	Name() string
}

var defaultFS FileSystem = osFS{}

type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	// #nosec G304 - The path is validated after opening to prevent TOCTOU attacks
	return os.OpenFile(name, flag, perm)
}

func (osFS) CreateTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

func (osFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (osFS) Remove(name string) error {
	return os.Remove(name)
}

// isNoFollowError reports whether err came from opening a symlink with O_NOFOLLOW.
// Linux returns ELOOP, FreeBSD returns EMLINK.
func isNoFollowError(err error) bool {
	var e *os.PathError
	if !errors.As(err, &e) {
		return false
	}
	return errors.Is(e.Err, syscall.ELOOP) || errors.Is(e.Err, syscall.EMLINK)
}

// SafeReadFile reads a file after validating the path and checking file properties.
// It refuses symlinks, non-regular files and anything larger than MaxFileSize.
func SafeReadFile(filePath string) ([]byte, error) {
	file, err := SafeOpenFile(filePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("error closing file", slog.String("path", filePath), slog.Any("error", closeErr))
		}
	}()

	return readFileContent(file, filePath)
}

// SafeOpenFile opens a file with O_NOFOLLOW, then verifies that no directory
// component is a symlink and that the result is a regular file.
func SafeOpenFile(filePath string, flag int, perm os.FileMode) (*os.File, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	// #nosec G304 - absPath is cleaned above, and O_NOFOLLOW refuses a symlinked leaf
	file, err := os.OpenFile(absPath, flag|syscall.O_NOFOLLOW, perm)
	if err != nil {
		switch {
		case isNoFollowError(err):
			return nil, ErrIsSymlink
		case os.IsExist(err):
			return nil, ErrFileExists
		default:
			return nil, err
		}
	}

	if err := verifyPathComponents(absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	if _, err := validateFile(file, absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// SafeWriteFile creates a new file with the given content. It fails with
// ErrFileExists rather than overwrite anything.
func SafeWriteFile(filePath string, content []byte, perm os.FileMode) error {
	return safeWriteFileWithFS(filePath, content, perm, defaultFS)
}

func safeWriteFileWithFS(filePath string, content []byte, perm os.FileMode, fs FileSystem) (err error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := fs.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL|syscall.O_NOFOLLOW, perm)
	if err != nil {
		switch {
		case os.IsExist(err):
			return ErrFileExists
		case isNoFollowError(err):
			return ErrIsSymlink
		default:
			return fmt.Errorf("failed to open file: %w", err)
		}
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	if err := verifyPathComponents(absPath); err != nil {
		return err
	}
	if _, err := validateFile(file, absPath); err != nil {
		return err
	}

	if _, err = file.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", absPath, err)
	}
	return nil
}

// SafeReplaceFile replaces the content of an existing regular file. The new
// content goes to a temporary file in the same directory, which is synced and
// then renamed over the target, so readers see either the old or the new bytes.
// The target's permission bits are preserved.
func SafeReplaceFile(filePath string, content []byte) error {
	return safeReplaceFileWithFS(filePath, content, defaultFS)
}

func safeReplaceFileWithFS(filePath string, content []byte, fs FileSystem) (err error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", absPath, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return ErrIsSymlink
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegularFile, absPath)
	}
	if err := verifyPathComponents(absPath); err != nil {
		return err
	}

	tmp, err := fs.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if renamed {
			return
		}
		_ = tmp.Close()
		if rmErr := fs.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("failed to remove temporary file", slog.String("path", tmpPath), slog.Any("error", rmErr))
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := fs.Rename(tmpPath, absPath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", absPath, err)
	}
	renamed = true
	return nil
}

// verifyPathComponents checks that no directory above absPath is a symlink.
// It runs after the file is opened so a swap between check and use is caught.
func verifyPathComponents(absPath string) error {
	current := filepath.Dir(absPath)
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return nil
		}

		fi, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to stat %s: %w", current, err)
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", ErrIsSymlink, current)
		}

		current = parent
	}
}

// readFileContent reads and validates the content of an already opened file
func readFileContent(file *os.File, filePath string) ([]byte, error) {
	fileInfo, err := validateFile(file, filePath)
	if err != nil {
		return nil, err
	}

	if fileInfo.Size() > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	content, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if int64(len(content)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	return content, nil
}

// validateFile stats through the descriptor, not the path, to avoid TOCTOU.
func validateFile(file File, filePath string) (os.FileInfo, error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, filePath)
	}

	return fileInfo, nil
}
