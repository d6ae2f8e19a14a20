package utils

import (
	"crypto/sha1"
	"drillbit/config"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// standardExtensions is the set of document types the checking service accepts
// without the allow-all-file-types setting.
var standardExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".rtf": true,
	".odt": true, ".html": true, ".htm": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".pages": true, ".tex": true,
}

// IsStandardFileType reports whether the file extension is on the allowlist.
func IsStandardFileType(fileName string) bool {
	return standardExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// ComputeIdentifier returns the content fingerprint (SHA-1 hex) used to detect
// whether a submission is materially different from anything previously checked.
func ComputeIdentifier(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// SaveUploadedFile stores an uploaded submission file and returns its path.
func SaveUploadedFile(file *multipart.FileHeader, destDir string) (string, error) {
	// Open the uploaded file
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	// Create a unique filename
	ext := filepath.Ext(file.Filename)
	newFilename := uuid.NewString() + ext
	filePath := filepath.Join(destDir, newFilename)

	// Create destination file
	dst, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// Copy the file content
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return filePath, nil
}

// WriteTempFile writes upload content to a scoped temporary file. The caller
// must remove it after the remote call, on success and failure alike.
func WriteTempFile(fileName string, data []byte) (string, error) {
	tempDir := filepath.Join(os.TempDir(), "plagiarism_drillbit")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", err
	}

	name := sanitizeTempFileName(fileName)
	path := filepath.Join(tempDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeTempFileName strips unsafe characters, prefixes a unique id and caps
// the length so long upload names cannot break the filesystem.
func sanitizeTempFileName(fileName string) string {
	fileName = strings.ReplaceAll(fileName, " ", "_")
	fileName = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, fileName)

	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)

	maxLen := 180
	if config.AppConfig != nil && config.AppConfig.MaxFileNameLength > 0 {
		maxLen = config.AppConfig.MaxFileNameLength
	}

	name := fmt.Sprintf("%s_%s%s", uuid.NewString(), base, ext)
	if len(name) > maxLen {
		// Preserve the extension when truncating
		keep := maxLen - len(ext)
		if keep < 1 {
			keep = 1
		}
		name = name[:keep] + ext
	}
	return name
}
