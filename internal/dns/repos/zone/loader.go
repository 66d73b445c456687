package zone

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/netip"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/miekg/dns"
	"go.uber.org/multierr"

	"github.com/haukened/adns/internal/dns/common/log"
)

// maxFieldLen bounds names and addresses so every answer fits in one message body.
const maxFieldLen = 253

var (
	// ErrEmptyZone is returned when a zone file holds no entries.
	ErrEmptyZone = errors.New("zone file contains no entries")
	// ErrInvalidEntry is wrapped by every per-entry load error.
	ErrInvalidEntry = errors.New("invalid zone entry")
)

// Format identifies a zone file encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatBolt Format = "bolt"
)

// FormatFromPath picks a format from the file extension. Anything unrecognised
// is read as text, one "domain address" pair per line.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	case ".db", ".bolt":
		return FormatBolt
	default:
		return FormatText
	}
}

// LoadFile reads the zone at path. Every invalid entry is reported; a single
// bad entry fails the whole load, as does a file without entries.
func LoadFile(path string, logger log.Logger) (*Zone, error) {
	format := FormatFromPath(path)

	var (
		entries []Entry
		err     error
	)
	switch format {
	case FormatYAML, FormatJSON, FormatTOML:
		entries, err = loadStructured(path, format)
	case FormatBolt:
		entries, err = loadBolt(path)
	default:
		entries, err = loadTextFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyZone, path)
	}

	z := New(entries)
	logger.Info(map[string]any{
		"file":    path,
		"format":  string(format),
		"entries": z.Len(),
	}, "Zone loaded")
	return z, nil
}

func loadTextFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone file %s: %w", path, err)
	}
	defer f.Close()
	return parseText(f, path)
}

// parseText reads "domain address" lines. Blank lines and lines starting
// with '#' are skipped.
func parseText(r io.Reader, source string) ([]Entry, error) {
	var (
		entries []Entry
		errs    error
	)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		toks := strings.Fields(line)
		if len(toks) != 2 {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s line %d: expected \"domain address\", got %d fields",
				ErrInvalidEntry, source, lineno, len(toks)))
			continue
		}
		if err := validateEntry(toks[0], toks[1]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s line %d: %w", ErrInvalidEntry, source, lineno, err))
			continue
		}
		entries = append(entries, Entry{Name: toks[0], Address: toks[1]})
	}
	if err := scanner.Err(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("error reading zone file %s: %w", source, err))
	}
	if errs != nil {
		return nil, errs
	}
	return entries, nil
}

// loadStructured reads a flat mapping of names to addresses. Mappings carry
// no line order, so entries are taken in sorted name order.
func loadStructured(path string, format Format) ([]Entry, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	case FormatTOML:
		parser = toml.Parser()
	default:
		return nil, fmt.Errorf("unsupported structured zone format %q", format)
	}

	// Names contain dots, so the key path delimiter must be something else.
	k := koanf.New("/")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load zone file %s: %w", path, err)
	}

	raw := k.Raw()
	var (
		entries []Entry
		errs    error
	)
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		addr, ok := raw[name].(string)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s key %q: address must be a string, got %T",
				ErrInvalidEntry, path, name, raw[name]))
			continue
		}
		addr = strings.TrimSpace(addr)
		if err := validateEntry(name, addr); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s key %q: %w", ErrInvalidEntry, path, name, err))
			continue
		}
		entries = append(entries, Entry{Name: name, Address: addr})
	}
	if errs != nil {
		return nil, errs
	}
	return entries, nil
}

func validateEntry(name, addr string) error {
	if len(name) > maxFieldLen {
		return fmt.Errorf("name is %d bytes (max %d)", len(name), maxFieldLen)
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return fmt.Errorf("invalid domain name %q", name)
	}
	if len(addr) > maxFieldLen {
		return fmt.Errorf("address is %d bytes (max %d)", len(addr), maxFieldLen)
	}
	if _, err := netip.ParseAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}
