package ngram

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the supported model file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatBinary             // Single binary file
	FormatChunk              // One of ngrams_NNNN.bin chunk files
	FormatText               // Tab separated "ngram<TAB>freq" lines
)

// MaxEntries is the largest entry count accepted in a binary header.
const MaxEntries = 1 << 24

// ChunkPrefix and ChunkExt name the chunk files in a model directory.
const (
	ChunkPrefix = "ngrams_"
	ChunkExt    = ".bin"
)

// FormatInfo contains metadata about a model file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatBinary: {
		Format:      FormatBinary,
		Description: "Binary N-gram Model",
		Extensions:  []string{".bin"},
		MinSize:     4,
	},
	FormatChunk: {
		Format:      FormatChunk,
		Description: "Chunked Binary N-gram Model",
		Extensions:  []string{".bin"},
		MinSize:     4,
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text N-gram Model",
		Extensions:  []string{".txt", ".tsv"},
		MinSize:     1,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expectedFormat {
	case FormatBinary, FormatChunk:
		return validateBinaryHeader(filename)
	}
	return nil
}

// validateBinaryHeader reads the entry count and checks it is sane
func validateBinaryHeader(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if count < 0 {
		return fmt.Errorf("invalid entry count in %s: %d (negative)", filename, count)
	}
	if count > MaxEntries {
		return fmt.Errorf("suspicious entry count in %s: %d (too large)", filename, count)
	}

	log.Debugf("Binary file %s validated: %d entries", filename, count)
	return nil
}

// DetectFileFormat attempts to detect the format of a file
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	basename := strings.ToLower(filepath.Base(filename))

	if strings.HasPrefix(basename, ChunkPrefix) && ext == ChunkExt {
		if err := ValidateFileFormat(filename, FormatChunk); err == nil {
			return FormatChunk, nil
		}
	}
	if ext == ".bin" {
		if err := ValidateFileFormat(filename, FormatBinary); err == nil {
			return FormatBinary, nil
		}
	}
	if ext == ".txt" || ext == ".tsv" {
		if err := ValidateFileFormat(filename, FormatText); err == nil {
			return FormatText, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// ChunkName returns the file name of the chunk with the given id.
func ChunkName(id int) string {
	return fmt.Sprintf("%s%04d%s", ChunkPrefix, id, ChunkExt)
}
