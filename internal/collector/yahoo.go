package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/model"
	"CCLSentinel/internal/platform/httpclient"
)

// YahooBaseURL is the public Yahoo Finance chart endpoint.
const YahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *httpclient.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	logger    zerolog.Logger
}

// NewYahooFetcher creates a Yahoo Finance fetcher on top of client.
func NewYahooFetcher(client *httpclient.Client) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: YahooBaseURL,
		Client:  client,
		// Buenos Aires lists these under a different ticker than the US leg.
		SymbolMap: map[string]string{
			"YPF.BA": "YPFD.BA",
			"PAM.BA": "PAMP.BA",
			"TGS.BA": "TGSU2.BA",
			"TEO.BA": "TECO2.BA",
		},
		logger: log.With().Str("component", "yahoo_fetcher").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				Gmtoffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []null.Float `json:"open"`
					High   []null.Float `json:"high"`
					Low    []null.Float `json:"low"`
					Close  []null.Float `json:"close"`
					Volume []null.Float `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns daily bars between start and end inclusive.
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	from, to := model.Day(start), model.Day(end)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&includePrePost=false",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), from.Unix(), to.AddDate(0, 0, 1).Unix())

	f.logger.Debug().Str("symbol", symbol).Str("url", u).Msg("fetching daily bars")
	body, err := f.Client.Get(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	return parseChart(symbol, body, from, to)
}

func parseChart(symbol string, body []byte, from, to time.Time) ([]model.PriceBar, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n {
		return nil, fmt.Errorf("yahoo: mismatched array lengths for %s", symbol)
	}

	// Keyed by day so a trailing live bar replaces the session bar of the same day.
	byDay := make(map[time.Time]model.PriceBar, n)
	for i, ts := range result.Timestamp {
		c := quote.Close[i]
		if !c.Valid || c.Float64 <= 0 {
			continue // skip null bars (holidays, halts)
		}
		day := model.Day(time.Unix(ts+result.Meta.Gmtoffset, 0).UTC())
		if day.Before(from) || day.After(to) {
			continue
		}
		var volume float64
		if i < len(quote.Volume) {
			volume = quote.Volume[i].ValueOrZero()
		}
		byDay[day] = model.PriceBar{
			Date:   day,
			Open:   quote.Open[i].ValueOrZero(),
			High:   quote.High[i].ValueOrZero(),
			Low:    quote.Low[i].ValueOrZero(),
			Close:  c.Float64,
			Volume: volume,
		}
	}

	bars := make([]model.PriceBar, 0, len(byDay))
	for _, b := range byDay {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
