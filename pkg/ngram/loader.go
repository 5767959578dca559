package ngram

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ChunkID    int
	Filename   string
	EntryCount int
}

// LoaderStats describes the result of a load.
type LoaderStats struct {
	Entries   int
	Chunks    int
	MaxFreq   uint64
	Order     int
	TimeTaken time.Duration
}

// CanonicalKey normalizes a key the way the store expects it:
// NFC, lower case and single spaces between words.
func CanonicalKey(key string) string {
	key = strings.Join(strings.Fields(key), Separator)
	return strings.ToLower(norm.NFC.String(key))
}

// Load reads a model from a text file, a binary file or a chunk directory.
func Load(ctx context.Context, path string) (*Trie, LoaderStats, error) {
	start := time.Now()
	info, err := os.Stat(path)
	if err != nil {
		return nil, LoaderStats{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	var entries []Entry
	chunks := 1
	if info.IsDir() {
		entries, chunks, err = loadDir(ctx, path)
	} else {
		entries, err = loadFile(path)
	}
	if err != nil {
		return nil, LoaderStats{}, err
	}
	if len(entries) == 0 {
		return nil, LoaderStats{}, fmt.Errorf("%w: no entries in %s", ErrModelUnavailable, path)
	}

	trie := FromEntries(entries)
	stats := LoaderStats{
		Entries:   trie.Len(),
		Chunks:    chunks,
		MaxFreq:   trie.MaxFreq(),
		Order:     trie.Order(),
		TimeTaken: time.Since(start),
	}
	log.Debugf("Loaded model from %s: %d entries, order %d, max freq %d in %v",
		path, stats.Entries, stats.Order, stats.MaxFreq, stats.TimeTaken)
	return trie, stats, nil
}

func loadFile(path string) ([]Entry, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer file.Close()

	var entries []Entry
	switch format {
	case FormatText:
		entries, err = ReadText(file)
	default:
		entries, err = ReadBinary(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}
	return entries, nil
}

// GetAvailableChunks scans a directory for chunk files, sorted by id.
func GetAvailableChunks(dir string) ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, ChunkPrefix+"*"+ChunkExt))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), ChunkPrefix), ChunkExt)
		chunkID, err := strconv.Atoi(idStr)
		if err != nil {
			log.Warnf("Skipping chunk file with bad id: %s", file)
			continue
		}
		count, err := chunkEntryCount(file)
		if err != nil {
			log.Warnf("Failed to get entry count for chunk %s: %v", file, err)
		}
		chunks = append(chunks, ChunkInfo{ChunkID: chunkID, Filename: file, EntryCount: count})
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	return chunks, nil
}

func chunkEntryCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// loadDir decodes all chunks concurrently. Results are merged in chunk id
// order so a later chunk overrides an earlier one on duplicate keys.
func loadDir(ctx context.Context, dir string) ([]Entry, int, error) {
	chunks, err := GetAvailableChunks(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("%w: no chunk files found in %s", ErrModelUnavailable, dir)
	}
	log.Debugf("Found %d chunk files", len(chunks))

	parts := make([][]Entry, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, err := loadChunk(chunk.Filename)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.ChunkID, err)
			}
			parts[i] = entries
			log.Debugf("Chunk %d loaded: %d entries", chunk.ChunkID, len(entries))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	merged := make([]Entry, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}
	return merged, len(chunks), nil
}

func loadChunk(filename string) ([]Entry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadBinary(file)
}

// ReadText parses "ngram<TAB>freq" lines. Blank lines and lines starting
// with '#' are skipped.
func ReadText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tab := strings.LastIndexByte(line, '\t')
		if tab < 0 {
			return nil, fmt.Errorf("line %d: missing tab separator", lineNo)
		}
		key := CanonicalKey(line[:tab])
		if key == "" {
			return nil, fmt.Errorf("line %d: empty n-gram", lineNo)
		}
		freq, err := strconv.ParseUint(strings.TrimSpace(line[tab+1:]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad frequency: %w", lineNo, err)
		}
		entries = append(entries, Entry{Key: key, Freq: uint32(freq)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadBinary decodes the binary format: an int32 entry count, then per entry
// a uint16 key length, the key bytes and a uint32 frequency. All little endian.
func ReadBinary(r io.Reader) ([]Entry, error) {
	reader := bufio.NewReader(r)

	var count int32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if count < 0 || count > MaxEntries {
		return nil, fmt.Errorf("invalid entry count %d", count)
	}

	entries := make([]Entry, 0, count)
	for i := 0; i < int(count); i++ {
		var keyLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &keyLen); err != nil {
			return nil, fmt.Errorf("entry %d: failed to read key length: %w", i, err)
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(reader, keyBytes); err != nil {
			return nil, fmt.Errorf("entry %d: failed to read key: %w", i, err)
		}
		var freq uint32
		if err := binary.Read(reader, binary.LittleEndian, &freq); err != nil {
			return nil, fmt.Errorf("entry %d: failed to read frequency: %w", i, err)
		}
		key := CanonicalKey(string(keyBytes))
		if key == "" {
			continue
		}
		entries = append(entries, Entry{Key: key, Freq: freq})
	}
	return entries, nil
}

// WriteBinary encodes entries in the format ReadBinary expects.
func WriteBinary(w io.Writer, entries []Entry) error {
	writer := bufio.NewWriter(w)
	if err := binary.Write(writer, binary.LittleEndian, int32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Key) > 0xFFFF {
			return fmt.Errorf("key too long: %d bytes", len(e.Key))
		}
		if err := binary.Write(writer, binary.LittleEndian, uint16(len(e.Key))); err != nil {
			return err
		}
		if _, err := writer.WriteString(e.Key); err != nil {
			return err
		}
		if err := binary.Write(writer, binary.LittleEndian, e.Freq); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// WriteChunks splits entries into chunk files of at most chunkSize entries
// and returns the written paths.
func WriteChunks(dir string, entries []Entry, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for id, off := 1, 0; off < len(entries); id, off = id+1, off+chunkSize {
		end := min(off+chunkSize, len(entries))
		path := filepath.Join(dir, ChunkName(id))
		file, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = WriteBinary(file, entries[off:end])
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("failed to write chunk %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
