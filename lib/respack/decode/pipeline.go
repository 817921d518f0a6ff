// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package decode materializes archive entries: it composes the cipher
// and inflate engines into the format's fixed transform order
// (decrypt, then decompress), verifies the per-entry checksum, and
// caches decoded content behind a per-entry single-flight so that
// concurrent readers of one entry pay for at most one decode while
// readers of distinct entries never serialize behind each other.
package decode

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/crypt"
	"github.com/bureau-foundation/respack/lib/respack/inflate"
)

// DefaultCacheBytes is the decoded-content cache budget when Options
// leaves it zero: 64 MiB, enough for the working set of a directory
// tree walk without holding a whole archive decoded.
const DefaultCacheBytes = 64 << 20

// ErrChecksumMismatch indicates an entry decoded cleanly but its
// content does not match the checksum recorded in the index. The entry
// is unreadable; partial or best-effort content is never returned.
var ErrChecksumMismatch = errors.New("decode: checksum mismatch")

// Options configures a Pipeline.
type Options struct {
	// Keyring supplies Blowfish keys for encrypted entries, selected
	// by archive name. Archives without encrypted entries need no
	// keyring; reading an encrypted entry without one fails with a
	// key-material error.
	Keyring *crypt.Keyring

	// CacheBytes bounds the decoded-content cache. Zero uses
	// DefaultCacheBytes.
	CacheBytes int64
}

// Pipeline decodes archive entries on demand. Safe for concurrent use
// from any number of goroutines.
type Pipeline struct {
	keyring    *crypt.Keyring
	cache      *lruCache
	cacheLimit int64
	group      singleflight.Group
}

// New creates a pipeline.
func New(options Options) *Pipeline {
	if options.CacheBytes == 0 {
		options.CacheBytes = DefaultCacheBytes
	}
	return &Pipeline{
		keyring:    options.Keyring,
		cache:      newLRUCache(options.CacheBytes),
		cacheLimit: options.CacheBytes,
	}
}

// Materialize produces an entry's fully decoded content. The returned
// slice is shared with the cache (and, for untransformed entries, with
// the archive's backing buffer); callers must treat it as read-only
// and must not use it after the archive closes.
//
// Concurrent calls for the same entry coalesce: the decode runs once
// and all callers receive the same bytes. Failures are not cached —
// a corrupt entry fails on every call, deterministically.
func (p *Pipeline) Materialize(archive *respack.Archive, entry *respack.Entry) ([]byte, error) {
	key := cacheKey{archive: archive.ID(), path: entry.Path}
	if content, ok := p.cache.get(key); ok {
		return content, nil
	}

	flightKey := strconv.FormatUint(key.archive, 16) + "\x00" + key.path
	content, err, _ := p.group.Do(flightKey, func() (any, error) {
		// A concurrent flight may have populated the cache between
		// our miss and acquiring the flight.
		if content, ok := p.cache.get(key); ok {
			return content, nil
		}
		content, err := p.decodeEntry(archive, entry)
		if err != nil {
			return nil, err
		}
		p.cache.put(key, content)
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return content.([]byte), nil
}

// ReadAt copies up to len(dest) decoded bytes starting at offset into
// dest and returns the count. Reads past end-of-file return a short
// (possibly zero) count, never an error. Untransformed entries are
// served directly from the backing buffer; transformed entries are
// materialized once and range-served from the cache thereafter.
func (p *Pipeline) ReadAt(archive *respack.Archive, entry *respack.Entry, dest []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("decode: negative read offset %d", offset)
	}
	if offset >= int64(entry.RawSize) {
		return 0, nil
	}

	remaining := int64(entry.RawSize) - offset
	if int64(len(dest)) > remaining {
		dest = dest[:remaining]
	}

	if entry.Plain() {
		stored := archive.StoredBytes(entry)
		return copy(dest, stored[offset:]), nil
	}

	// Compressed-only entries larger than the cache budget would be
	// fully inflated on every read (the cache refuses them); inflate
	// just the requested prefix instead. Checksummed entries still
	// materialize, since verification needs the full content.
	if entry.Compressed() && !entry.Encrypted() && !entry.HasChecksum() &&
		int64(entry.RawSize) > p.cacheLimit {
		prefix, err := inflate.DecompressPrefix(archive.StoredBytes(entry), int(offset)+len(dest))
		if err != nil {
			return 0, fmt.Errorf("entry %q: %w", entry.Path, err)
		}
		return copy(dest, prefix[offset:]), nil
	}

	content, err := p.Materialize(archive, entry)
	if err != nil {
		return 0, err
	}
	return copy(dest, content[offset:]), nil
}

// DropArchive evicts all cached content belonging to an archive.
// Call before closing the archive so cached views of its backing
// mapping cannot outlive the mapping.
func (p *Pipeline) DropArchive(archiveID uint64) {
	p.cache.dropArchive(archiveID)
}

// CachedEntries returns the number of decoded entries currently
// resident in the cache.
func (p *Pipeline) CachedEntries() int {
	return p.cache.len()
}

// decodeEntry runs the ordered transform for one entry: stored bytes,
// then decryption if flagged, then inflation if flagged, then checksum
// verification. The order is fixed by the format (content is
// compressed before encryption at write time).
func (p *Pipeline) decodeEntry(archive *respack.Archive, entry *respack.Entry) ([]byte, error) {
	data := archive.StoredBytes(entry)

	if entry.Encrypted() {
		if p.keyring == nil {
			return nil, fmt.Errorf("%w: entry %q is encrypted and no keyring is configured",
				crypt.ErrInvalidKeyMaterial, entry.Path)
		}
		key, err := p.keyring.KeyFor(archive.Name())
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Path, err)
		}

		decrypted := make([]byte, len(data))
		if err := key.DecryptBlocks(decrypted, data); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Path, err)
		}
		data = decrypted

		if !entry.Compressed() {
			// Zero padding from block alignment sits after the real
			// content; raw size delimits it.
			if uint64(len(data)) < entry.RawSize {
				return nil, fmt.Errorf("%w: entry %q decrypted to %d bytes, raw size is %d",
					inflate.ErrSizeMismatch, entry.Path, len(data), entry.RawSize)
			}
			data = data[:entry.RawSize]
		}
	}

	if entry.Compressed() {
		inflated, err := inflate.Decompress(data, int(entry.RawSize))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Path, err)
		}
		data = inflated
	}

	if entry.HasChecksum() {
		if actual := crc32.ChecksumIEEE(data); actual != entry.Checksum {
			return nil, fmt.Errorf("%w: entry %q has crc32 %08x, index records %08x",
				ErrChecksumMismatch, entry.Path, actual, entry.Checksum)
		}
	}

	return data, nil
}
