package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPrefix is prepended to every output file name.
const DefaultPrefix = "upscaled"

// OutputName derives the download name from the uploaded file name:
// <prefix>_<stem>.<ext>.
func OutputName(prefix, original, format string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "image"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, stem, Extension(format))
}

// ArchiveName names the zip for a batch of n results.
func ArchiveName(n int) string {
	return fmt.Sprintf("upscaled_images_%d_files.zip", n)
}

// WriteArchive writes one deflated entry per result in order. Repeated names
// get a _<k> suffix on the stem.
func WriteArchive(w io.Writer, entries []Encoded) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(entries))
	modified := time.Now()

	for _, entry := range entries {
		name := uniqueName(entry.Name, seen)

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create archive entry %s: %w", name, err)
		}
		if _, err := fw.Write(entry.Data); err != nil {
			return fmt.Errorf("write archive entry %s: %w", name, err)
		}
	}

	return zw.Close()
}

func uniqueName(name string, seen map[string]int) string {
	count := seen[name]
	seen[name] = count + 1
	if count == 0 {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		candidate := fmt.Sprintf("%s_%d%s", stem, count, ext)
		if seen[candidate] == 0 {
			seen[candidate] = 1
			return candidate
		}
		count++
	}
}
