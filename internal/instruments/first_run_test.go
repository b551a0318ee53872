package instruments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sabarim/tradelogin/internal/config"
)

const instrumentsCSV = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
738561,2885,RELIANCE,RELIANCE INDUSTRIES,2950.5,,0,0.05,1,EQ,NSE,NSE
341249,1333,HDFCBANK,HDFC BANK,1650.25,,0,0.05,1,EQ,NSE,NSE
128083204,500325,RELIANCE,RELIANCE INDUSTRIES,2951,,0,0.05,1,EQ,BSE,BSE
`

func TestFirstRunDownloadsOnceAndWritesSnapshot(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(instrumentsCSV))
	}))
	defer srv.Close()

	dir := t.TempDir()
	fr := NewFirstRun(config.InstrumentsConfig{
		URL:         srv.URL,
		Path:        filepath.Join(dir, "instruments.csv"),
		ParquetPath: filepath.Join(dir, "snap", "instruments.parquet"),
	}, srv.Client())

	if err := fr.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := fr.Ensure(context.Background()); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected one download, got %d", n)
	}

	inst, ok := fr.Lookup("RELIANCE")
	if !ok {
		t.Fatalf("expected RELIANCE to be loaded")
	}
	if inst.Exchange != "NSE" || inst.InstrumentToken != 738561 || inst.LastPrice != 2950.5 {
		t.Fatalf("unexpected instrument %+v", inst)
	}

	rows, err := ReadSnapshot(filepath.Join(dir, "snap", "instruments.parquet"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 NSE rows, got %d", len(rows))
	}
	if rows[0].TradingSymbol != "HDFCBANK" || rows[1].TradingSymbol != "RELIANCE" {
		t.Fatalf("unexpected row order %q, %q", rows[0].TradingSymbol, rows[1].TradingSymbol)
	}
}

func TestFirstRunUsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instruments.csv")
	if err := os.WriteFile(path, []byte(instrumentsCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	fr := NewFirstRun(config.InstrumentsConfig{URL: "http://127.0.0.1:1/unused", Path: path}, nil)
	if err := fr.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, ok := fr.Lookup("HDFCBANK"); !ok {
		t.Fatalf("expected HDFCBANK from local file")
	}
}

func TestFirstRunDownloadFailureIsRetried(t *testing.T) {
	var fail int32 = 1
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(instrumentsCSV))
	}))
	defer srv.Close()

	fr := NewFirstRun(config.InstrumentsConfig{
		URL:  srv.URL,
		Path: filepath.Join(t.TempDir(), "instruments.csv"),
	}, srv.Client())

	if err := fr.Ensure(context.Background()); err == nil {
		t.Fatalf("expected error on 503")
	}
	atomic.StoreInt32(&fail, 0)
	if err := fr.Ensure(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}
