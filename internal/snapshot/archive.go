package snapshot

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"
)

// Archive entry names, in the order they are written.
const (
	EntryUsers         = "users"
	EntryEvents        = "events"
	EntryProposals     = "proposals"
	EntryProposalDates = "proposal_dates"
	EntryRatings       = "ratings"
	EntryVotes         = "votes"
	EntryMessages      = "messages"

	// EntryManifest is optional and informational; readers ignore it.
	EntryManifest = "manifest"
)

// Entries lists the required entries in their stable write order.
var Entries = []string{
	EntryUsers,
	EntryEvents,
	EntryProposals,
	EntryProposalDates,
	EntryRatings,
	EntryVotes,
	EntryMessages,
}

// maxEntrySize caps the decompressed size of a single entry.
const maxEntrySize = 256 << 20

type archiveEntry struct {
	name    string
	payload []byte
}

// writeArchive packs entries into an in-memory zip. The bytes are only
// returned once the central directory has been written.
func writeArchive(entries []archiveEntry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("creating entry %s: %w", e.name, err)
		}
		if _, err := w.Write(e.payload); err != nil {
			return nil, fmt.Errorf("writing entry %s: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// readArchive returns the payload of every entry keyed by name. Directory
// entries are skipped and duplicate names are rejected.
func readArchive(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, malformed("reading container: %v", err)
	}

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if _, dup := entries[f.Name]; dup {
			return nil, malformed("duplicate entry %q", f.Name)
		}
		payload, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		entries[f.Name] = payload
	}
	return entries, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, malformed("opening entry %q: %v", f.Name, err)
	}
	defer rc.Close()

	payload, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, malformed("reading entry %q: %v", f.Name, err)
	}
	if len(payload) > maxEntrySize {
		return nil, malformed("entry %q exceeds %d bytes", f.Name, maxEntrySize)
	}
	return payload, nil
}
