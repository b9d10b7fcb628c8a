package bloom

import (
	"fmt"
	"io"
	"os"
)

// Save persists the filter to path.
//
// A missing file is written whole: header page, full bit array, sync. An
// existing file is updated in place, rewriting only the pages dirtied since
// the last save, so write cost is proportional to pages mutated rather than
// filter size. Either way the dirty flags are cleared only after the bytes
// are synced; a failed save leaves them set for the next attempt.
func (f *Filter) Save(path string) error {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("bloom: stat %s: %w", path, err)
		}
		return f.saveFresh(path)
	}
	return f.saveDirtyPages(path)
}

// saveFresh writes a complete new filter file. O_EXCL keeps this path
// honest: if the file appeared since the existence check, the create fails
// instead of overwriting it.
func (f *Filter) saveFresh(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("bloom: create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	header := make([]byte, PageSize)
	encodeHeader(header, f.params)
	if _, err := file.Write(header); err != nil {
		return fmt.Errorf("bloom: write header: %w", err)
	}
	if _, err := file.Write(f.store.bits); err != nil {
		return fmt.Errorf("bloom: write bit array: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("bloom: sync %s: %w", path, err)
	}

	f.store.clearDirty()
	return nil
}

// saveDirtyPages rewrites only the dirty pages of an existing file, at
// their fixed offsets. Pages untouched since the last save are left alone
// on disk.
func (f *Filter) saveDirtyPages(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("bloom: open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	for _, page := range f.store.dirtyPages() {
		// Bit-array page 0 lives one page into the file, after the header
		// page.
		off := int64(1+page) * PageSize
		if _, err := file.WriteAt(f.store.pageBytes(page), off); err != nil {
			return fmt.Errorf("bloom: write page %d: %w", page, err)
		}
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("bloom: sync %s: %w", path, err)
	}

	f.store.clearDirty()
	return nil
}

// Load reopens a filter persisted with Save, under the default seed. See
// LoadSeeded.
func Load(path string) (*Filter, error) {
	return LoadSeeded(path, Seed{})
}

// LoadSeeded reopens a filter persisted with Save. The seed must be the one
// the filter was built with; the format does not record it.
//
// The exact insert counter is not persisted either: count is rebuilt from
// CountEstimate, so Full and Empty answer approximately after a reload.
func LoadSeeded(path string, seed Seed) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bloom: open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	params, err := readHeaderFrom(file)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		params: params,
		seed:   seed,
		store:  newPageStore(params.M),
	}
	if _, err := io.ReadFull(file, f.store.bits); err != nil {
		return nil, fmt.Errorf("bloom: read bit array: %w", err)
	}
	f.count = f.CountEstimate()
	return f, nil
}

// ReadHeader validates path's header page and returns the stored parameter
// set without constructing a filter.
func ReadHeader(path string) (Params, error) {
	file, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("bloom: open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return readHeaderFrom(file)
}

// readHeaderFrom consumes exactly one header page from r, validates it, and
// re-derives the full parameter set from the stored (m, n, k).
func readHeaderFrom(r io.Reader) (Params, error) {
	buf := make([]byte, PageSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Params{}, fmt.Errorf("bloom: read header: %w", err)
	}

	h := Header(buf)
	if !h.MagicOK() {
		return Params{}, ErrFormatMismatch
	}

	params, err := Solve(Spec{Bits: h.M(), Capacity: h.N(), Hashes: h.K()})
	if err != nil {
		return Params{}, fmt.Errorf("bloom: header parameters: %w", err)
	}
	if params.M%PageBits != 0 {
		return Params{}, fmt.Errorf("bloom: header bit length %d is not page aligned", params.M)
	}
	return params, nil
}
