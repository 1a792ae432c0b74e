// Package zone loads seed records from zone files in YAML, JSON or TOML.
//
// A zone file names its root and maps labels to record types:
//
//	zone_root: example.com
//	ttl: 3600
//	"@":
//	  NS: ns1.example.com
//	  MX: ["10 mail.example.com", "20 backup.example.com"]
//	www:
//	  A: 192.0.2.10
//
// "@" is the root itself and a label ending in "." is absolute. Records are
// returned in presentation form so the caller can validate them the same way
// as operator input.
package zone

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/ttl-dns/internal/dns/common/utils"
)

// DefaultTTL applies to files that do not set their own ttl.
const DefaultTTL uint32 = 3600

// SeedRecord is one record read from a zone file.
type SeedRecord struct {
	Name string
	Type string
	TTL  uint32
	Text string
}

// LoadDirectory walks dir and loads every supported zone file. Files with
// other extensions are ignored. Any file that fails to parse aborts the load.
func LoadDirectory(dir string, defaultTTL uint32) ([]SeedRecord, error) {
	var records []SeedRecord

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		fileRecords, err := loadFile(path, defaultTTL)
		if err != nil {
			return fmt.Errorf("error parsing zone file %s: %w", path, err)
		}
		records = append(records, fileRecords...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// parserFor picks a koanf parser by file extension; nil means unsupported.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

// loadFile parses one zone file. Records are sorted by name then type.
func loadFile(path string, defaultTTL uint32) ([]SeedRecord, error) {
	parser := parserFor(path)
	if parser == nil {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load zone file %s: %w", path, err)
	}

	root := utils.CanonicalDNSName(k.String("zone_root"))
	if root == "" {
		return nil, fmt.Errorf("zone file %s missing 'zone_root'", path)
	}

	ttl := defaultTTL
	if k.Exists("ttl") {
		v := k.Int64("ttl")
		if v <= 0 || v > math.MaxUint32 {
			return nil, fmt.Errorf("zone file %s: ttl must be a positive number of seconds", path)
		}
		ttl = uint32(v)
	}

	var records []SeedRecord
	for label, raw := range k.Raw() {
		if label == "zone_root" || label == "ttl" {
			continue
		}
		types, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := utils.ExpandName(label, root)
		for rrType, val := range types {
			for _, text := range toStringValues(val) {
				records = append(records, SeedRecord{
					Name: name,
					Type: strings.ToUpper(rrType),
					TTL:  ttl,
					Text: text,
				})
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].Type < records[j].Type
	})
	return records, nil
}

// toStringValues converts a parsed value (string or list of strings) into
// trimmed, non-empty strings. Anything else yields nothing.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
