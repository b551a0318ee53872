package instruments

// Instrument represents a trading instrument
type Instrument struct {
	InstrumentToken int64   `json:"instrument_token"`
	ExchangeToken   int64   `json:"exchange_token"`
	TradingSymbol   string  `json:"tradingsymbol"`
	Name            string  `json:"name"`
	LastPrice       float64 `json:"last_price"`
	TickSize        float64 `json:"tick_size"`
	Expiry          string  `json:"expiry"`
	InstrumentType  string  `json:"instrument_type"`
	Segment         string  `json:"segment"`
	Exchange        string  `json:"exchange"`
	StrikePrice     float64 `json:"strike"`
	LotSize         int64   `json:"lot_size"`
}

// InstrumentRow is the parquet layout of the instruments snapshot
type InstrumentRow struct {
	InstrumentToken int64   `parquet:"name=instrument_token, type=INT64"`
	ExchangeToken   int64   `parquet:"name=exchange_token, type=INT64"`
	TradingSymbol   string  `parquet:"name=tradingsymbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Name            string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastPrice       float64 `parquet:"name=last_price, type=DOUBLE, encoding=PLAIN"`
	TickSize        float64 `parquet:"name=tick_size, type=DOUBLE, encoding=PLAIN"`
	Expiry          string  `parquet:"name=expiry, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	InstrumentType  string  `parquet:"name=instrument_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Segment         string  `parquet:"name=segment, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Exchange        string  `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StrikePrice     float64 `parquet:"name=strike, type=DOUBLE, encoding=PLAIN"`
	LotSize         int64   `parquet:"name=lot_size, type=INT64"`
}

func (i Instrument) row() InstrumentRow {
	return InstrumentRow{
		InstrumentToken: i.InstrumentToken,
		ExchangeToken:   i.ExchangeToken,
		TradingSymbol:   i.TradingSymbol,
		Name:            i.Name,
		LastPrice:       i.LastPrice,
		TickSize:        i.TickSize,
		Expiry:          i.Expiry,
		InstrumentType:  i.InstrumentType,
		Segment:         i.Segment,
		Exchange:        i.Exchange,
		StrikePrice:     i.StrikePrice,
		LotSize:         i.LotSize,
	}
}
