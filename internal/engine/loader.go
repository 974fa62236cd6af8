package engine

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/csv"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/labstack/gommon/log"
	"github.com/zeebo/xxh3"

	"salarydash/internal/models"
)

// DefaultSourceURL is the published salary dataset.
const DefaultSourceURL = "https://raw.githubusercontent.com/vqrca/dashboard_salarios_dados/refs/heads/main/dados-imersao-final.csv"

// Load stages reported in LoadError.
const (
	StageFetch  = "fetch"
	StageHeader = "header"
	StageParse  = "parse"
)

// LoadError is returned when the dataset cannot be fetched or parsed.
type LoadError struct {
	Source string
	Stage  string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Source, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches and decodes the source CSV. A single attempt is made.
type Loader struct {
	client *http.Client
	alloc  memory.Allocator
	logger *log.Logger
	chunk  int
}

func NewLoader(timeout time.Duration, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New("engine")
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
		alloc:  memory.NewGoAllocator(),
		logger: logger,
		chunk:  1024,
	}
}

// Load fetches source (an http(s) URL or a local path) and returns the
// typed dataset. Any failure is a *LoadError.
func (l *Loader) Load(ctx context.Context, source string) (*Dataset, error) {
	start := time.Now()
	l.logger.Infof("loading dataset from %s", source)

	content, err := l.fetch(ctx, source)
	if err != nil {
		return nil, &LoadError{Source: source, Stage: StageFetch, Err: err}
	}

	records, err := l.decode(content)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
			return nil, le
		}
		return nil, &LoadError{Source: source, Stage: StageParse, Err: err}
	}

	ds := NewDataset(records)
	ds.Source = source
	ds.LoadedAt = time.Now()
	ds.Fingerprint = xxh3.Hash(content)

	l.logger.Infof("load complete: rows=%d time=%v", len(records), time.Since(start))
	return ds, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// --- DECODING ---

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode validates the header, then streams the body through the arrow CSV
// reader in fixed-size record batches and converts each row to a Record.
func (l *Loader) decode(content []byte) ([]models.Record, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	header, err := readHeader(content)
	if err != nil {
		return nil, &LoadError{Stage: StageHeader, Err: err}
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, &LoadError{Stage: StageHeader, Err: err}
	}

	r := csv.NewReader(
		bytes.NewReader(content),
		buildSchema(header),
		csv.WithHeader(true),
		csv.WithChunk(l.chunk),
		csv.WithAllocator(l.alloc),
		csv.WithNullReader(false, ""),
	)
	defer r.Release()

	records := make([]models.Record, 0, bytes.Count(content, []byte{'\n'}))
	for r.Next() {
		batch, err := convertBatch(r.Record(), idx, len(records))
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("after row %d: %w", len(records), err)
	}
	return records, nil
}

// readHeader returns the trimmed column names of the first record. The
// arrow reader needs the schema before it sees the header, so the header
// record is parsed ahead of it with the same RFC 4180 rules.
func readHeader(content []byte) ([]string, error) {
	r := stdcsv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
		return nil, nil
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields, nil
}

func columnIndex(header []string) (map[models.Column]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	idx := make(map[models.Column]int, len(models.RequiredColumns))
	var missing []string
	for _, col := range models.RequiredColumns {
		i, ok := pos[string(col)]
		if !ok {
			missing = append(missing, string(col))
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// buildSchema types every header column. Year and salary are read as
// float64 so "2023.0" style cells still decode; everything else is a string.
func buildSchema(header []string) *arrow.Schema {
	fields := make([]arrow.Field, len(header))
	for i, h := range header {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		switch models.Column(h) {
		case models.ColYear, models.ColSalaryUSD:
			typ = arrow.PrimitiveTypes.Float64
		}
		name := h
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		fields[i] = arrow.Field{Name: name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func convertBatch(rec arrow.Record, idx map[models.Column]int, offset int) ([]models.Record, error) {
	str := func(col models.Column) *array.String {
		return rec.Column(idx[col]).(*array.String)
	}
	years := rec.Column(idx[models.ColYear]).(*array.Float64)
	usd := rec.Column(idx[models.ColSalaryUSD]).(*array.Float64)
	sen := str(models.ColSeniority)
	con := str(models.ColContract)
	size := str(models.ColCompanySize)
	role := str(models.ColRole)
	remote := str(models.ColRemote)
	iso := str(models.ColResidenceISO3)
	company := str(models.ColCompanyCountry)

	n := int(rec.NumRows())
	out := make([]models.Record, n)
	for i := 0; i < n; i++ {
		row := offset + i + 1 // 1-based data row, header excluded

		if years.IsNull(i) {
			return nil, fmt.Errorf("row %d: empty %s", row, models.ColYear)
		}
		y := years.Value(i)
		if y != math.Trunc(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("row %d: %s %v is not an integer", row, models.ColYear, y)
		}

		if usd.IsNull(i) {
			return nil, fmt.Errorf("row %d: empty %s", row, models.ColSalaryUSD)
		}
		salary := usd.Value(i)
		if math.IsNaN(salary) || math.IsInf(salary, 0) || salary < 0 {
			return nil, fmt.Errorf("row %d: invalid %s %v", row, models.ColSalaryUSD, salary)
		}

		out[i] = models.Record{
			Year:           int(y),
			Seniority:      strings.TrimSpace(sen.Value(i)),
			ContractType:   strings.TrimSpace(con.Value(i)),
			CompanySize:    strings.TrimSpace(size.Value(i)),
			Role:           strings.TrimSpace(role.Value(i)),
			SalaryUSD:      salary,
			RemoteType:     strings.TrimSpace(remote.Value(i)),
			ResidenceISO3:  strings.TrimSpace(iso.Value(i)),
			CompanyCountry: strings.TrimSpace(company.Value(i)),
		}
	}
	return out, nil
}
