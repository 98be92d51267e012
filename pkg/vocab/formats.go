package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownFormat is returned when a vocabulary file format cannot be determined.
var ErrUnknownFormat = errors.New("vocab: unknown vocabulary file format")

// FileFormat represents different vocabulary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatMsgpack            // Binary msgpack format
	FormatText               // Plain text format
)

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// FormatInfo contains metadata about a vocabulary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "Msgpack Vocabulary",
		Extensions:  []string{".vocab", ".msgpack", ".bin"},
		MinSize:     8, // At least the header
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Vocabulary",
		Extensions:  []string{".txt"},
		MinSize:     int64(len(textMagic)),
	},
}

// FormatFromPath picks a format from the file extension alone.
// Unknown extensions default to msgpack.
func FormatFromPath(filename string) FileFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range []FileFormat{FormatText, FormatMsgpack} {
		for _, e := range supportedFormats[format].Extensions {
			if ext == e {
				return format
			}
		}
	}
	return FormatMsgpack
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, expectedFormat)
	}

	// Check file size
	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("%w: file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			ErrCorruptVocabulary, filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	// Format-specific validation
	switch expectedFormat {
	case FormatMsgpack:
		return validateMsgpackFormat(filename)
	case FormatText:
		return validateTextFormat(filename)
	}

	return nil
}

// validateMsgpackFormat reads and checks the header of a msgpack vocabulary
func validateMsgpackFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var hdr fileHeader
	if err := msgpack.NewDecoder(bufio.NewReader(file)).Decode(&hdr); err != nil {
		return fmt.Errorf("%w: failed to read header from %s: %v", ErrCorruptVocabulary, filename, err)
	}
	if err := hdr.check(); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	log.Debugf("Msgpack vocabulary %s validated: max_len %d", filename, hdr.MaxLen)
	return nil
}

// validateTextFormat checks the first line of a text vocabulary
func validateTextFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read from text file %s: %w", filename, err)
		}
		return fmt.Errorf("%w: %s is empty", ErrCorruptVocabulary, filename)
	}
	if _, err := parseTextHeader(scanner.Text()); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	log.Debugf("Text vocabulary %s validated", filename)
	return nil
}

// DetectFileFormat attempts to detect the format of an existing file.
// The extension is tried first, then the other formats.
func DetectFileFormat(filename string) (FileFormat, error) {
	preferred := FormatFromPath(filename)
	if err := ValidateFileFormat(filename, preferred); err == nil {
		return preferred, nil
	} else if errors.Is(err, os.ErrNotExist) {
		return FormatUnknown, err
	}

	for _, format := range []FileFormat{FormatMsgpack, FormatText} {
		if format == preferred {
			continue
		}
		if err := ValidateFileFormat(filename, format); err == nil {
			log.Warnf("Vocabulary %s has %s contents despite its extension", filename, format)
			return format, nil
		}
	}

	return FormatUnknown, fmt.Errorf("%w: unable to detect format for file %s", ErrUnknownFormat, filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// ListSupportedFormats returns all supported formats
func ListSupportedFormats() []FormatInfo {
	return []FormatInfo{supportedFormats[FormatMsgpack], supportedFormats[FormatText]}
}
