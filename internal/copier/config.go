package copier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/D3f0/dbglue/internal/utils"
)

// DefaultBatchSize is the number of rows read and written per transaction.
const DefaultBatchSize = 1000

// Config holds the configuration for a copy run
type Config struct {
	SourceConn string
	DestConn   string
	SourceFile string
	DestFile   string

	// Tables is the explicit list of table names; duplicates are processed
	// twice and an empty list copies nothing.
	Tables []string
	// AllTables selects every table of the source catalog instead of Tables.
	AllTables bool
	// ExcludeTables holds wildcard patterns removed from an AllTables selection.
	ExcludeTables []string

	// WarnOnly logs and skips recoverable errors instead of aborting the run.
	WarnOnly  bool
	BatchSize int
	Mode      WriteMode
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.SourceConn == "" && config.SourceFile == "" {
		return fmt.Errorf("%w: either --source connection string or --source-file must be provided", utils.ErrInvalidConfig)
	}
	if config.DestConn == "" && config.DestFile == "" {
		return fmt.Errorf("%w: either --destination connection string or --dest-file must be provided", utils.ErrInvalidConfig)
	}
	if config.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", utils.ErrInvalidConfig)
	}
	if err := utils.ValidatePatterns(config.ExcludeTables); err != nil {
		return err
	}
	return nil
}

// ResolveConnection returns conn, or the trimmed content of file when set.
func ResolveConnection(conn, file string) (string, error) {
	if file == "" {
		return conn, nil
	}
	content, err := readConnectionFromFile(file)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read connection file %s: %v", utils.ErrInvalidConfig, file, err)
	}
	return content, nil
}

func readConnectionFromFile(filename string) (string, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(absPath) // #nosec G304 - path comes from the operator
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(content)), nil
}

type writeModeKind int

const (
	insertOnly writeModeKind = iota
	upsertByKey
)

// WriteMode selects how rows are applied to the destination.
// The zero value is InsertOnly.
type WriteMode struct {
	kind       writeModeKind
	keyColumns []string
}

// InsertOnly appends every row with a plain INSERT.
var InsertOnly = WriteMode{}

// UpsertByKey merges rows on the given key columns. Writers reject it with
// utils.ErrUnsupportedWriteMode.
func UpsertByKey(keyColumns ...string) WriteMode {
	return WriteMode{kind: upsertByKey, keyColumns: append([]string(nil), keyColumns...)}
}

// IsUpsert reports whether m is an UpsertByKey mode.
func (m WriteMode) IsUpsert() bool { return m.kind == upsertByKey }

// KeyColumns returns the upsert key; nil for InsertOnly.
func (m WriteMode) KeyColumns() []string {
	return append([]string(nil), m.keyColumns...)
}

func (m WriteMode) String() string {
	if m.IsUpsert() {
		return "upsert(" + strings.Join(m.keyColumns, ",") + ")"
	}
	return "insert"
}
