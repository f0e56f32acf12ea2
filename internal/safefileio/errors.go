// Package safefileio reads and replaces files without following symbolic links
// and without ever leaving a partially written target behind.
package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the path, or one of its directories, is a symbolic link.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrFileTooLarge indicates that the file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileExists indicates that an exclusive create found an existing file.
	ErrFileExists = errors.New("file exists")

	// ErrNotRegularFile indicates a device, pipe, socket or directory where a regular file was expected.
	ErrNotRegularFile = errors.New("not a regular file")
)
