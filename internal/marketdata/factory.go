package marketdata

import (
	"os"

	"quant-trading-bot/internal/interfaces"
	"quant-trading-bot/internal/store"
)

// New selects the data source configured in data_source:
// STATIC (synthetic), LIVE (REST), STREAM (websocket cache over REST).
func New(cfg *store.Config) interfaces.MarketData {
	switch cfg.DataSource {
	case "LIVE":
		return NewBinance(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))
	case "STREAM":
		return NewStream(NewBinance(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET")))
	default:
		return NewStatic()
	}
}
