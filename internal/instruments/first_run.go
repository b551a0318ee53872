package instruments

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sabarim/tradelogin/internal/config"
)

// FirstRun downloads the instruments master once per process, after the
// first successful login, and keeps a parquet snapshot of it.
type FirstRun struct {
	config     config.InstrumentsConfig
	httpClient *http.Client

	mu          sync.Mutex
	done        bool
	instruments map[string]Instrument
}

// NewFirstRun creates the post-login instruments hook
func NewFirstRun(cfg config.InstrumentsConfig, httpClient *http.Client) *FirstRun {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &FirstRun{
		config:      cfg,
		httpClient:  httpClient,
		instruments: make(map[string]Instrument),
	}
}

// Ensure loads the instruments snapshot, downloading it when the local CSV is
// missing or empty. Calls after the first success are no-ops; a failed run
// is retried on the next call.
func (fr *FirstRun) Ensure(ctx context.Context) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.done {
		return nil
	}

	if !fileHasData(fr.config.Path) {
		if err := fr.download(ctx); err != nil {
			return fmt.Errorf("failed to download NSE instruments: %w", err)
		}
	}

	count, err := fr.load()
	if err != nil {
		return err
	}
	log.Printf("Loaded %d NSE instruments", count)

	if fr.config.ParquetPath != "" {
		if err := writeSnapshot(fr.config.ParquetPath, fr.instruments); err != nil {
			return err
		}
	}

	fr.done = true
	return nil
}

// Lookup returns an instrument by its trading symbol
func (fr *FirstRun) Lookup(symbol string) (Instrument, bool) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	instrument, ok := fr.instruments[symbol]
	return instrument, ok
}

func (fr *FirstRun) download(ctx context.Context) error {
	log.Printf("Downloading NSE instruments from %s", fr.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fr.config.URL, nil)
	if err != nil {
		return err
	}
	resp, err := fr.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(fr.config.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create instruments directory: %w", err)
	}

	tmp := fr.config.Path + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create instruments file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to save NSE instruments: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, fr.config.Path)
}

func (fr *FirstRun) load() (int, error) {
	file, err := os.Open(fr.config.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to open instruments file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int)
	for i, col := range header {
		columns[col] = i
	}
	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read CSV record: %w", err)
		}

		// Only process NSE instruments
		if field(record, "exchange") != "NSE" {
			continue
		}

		instrument := Instrument{
			InstrumentToken: parseIntOrZero(field(record, "instrument_token")),
			ExchangeToken:   parseIntOrZero(field(record, "exchange_token")),
			TradingSymbol:   field(record, "tradingsymbol"),
			Name:            field(record, "name"),
			LastPrice:       parseFloatOrZero(field(record, "last_price")),
			TickSize:        parseFloatOrZero(field(record, "tick_size")),
			Expiry:          field(record, "expiry"),
			InstrumentType:  field(record, "instrument_type"),
			Segment:         field(record, "segment"),
			Exchange:        field(record, "exchange"),
			StrikePrice:     parseFloatOrZero(field(record, "strike")),
			LotSize:         parseIntOrZero(field(record, "lot_size")),
		}
		fr.instruments[instrument.TradingSymbol] = instrument
		count++
	}
	return count, nil
}

func fileHasData(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func parseIntOrZero(s string) int64 {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}

func parseFloatOrZero(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}
