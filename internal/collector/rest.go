package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CCLSentinel/internal/model"
	"CCLSentinel/internal/platform/httpclient"
)

// RestFetcher implements Fetcher against a generic REST bars endpoint:
// GET {base}/api/v1/bars/daily?symbol=S&from=YYYY-MM-DD&to=YYYY-MM-DD
type RestFetcher struct {
	BaseURL string
	APIKey  string
	Client  *httpclient.Client
	logger  zerolog.Logger
}

// NewRestFetcher creates a fetcher for a self-hosted or commercial bars API.
func NewRestFetcher(baseURL, apiKey string, client *httpclient.Client) *RestFetcher {
	return &RestFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  client,
		logger:  log.With().Str("component", "rest_fetcher").Logger(),
	}
}

func (f *RestFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RestFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	from, to := model.Day(start), model.Day(end)
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	var header http.Header
	if f.APIKey != "" {
		header = http.Header{"Authorization": []string{"Bearer " + f.APIKey}}
	}
	body, err := f.Client.Get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}

	var raw []restBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	// Intraday timestamps collapse to their day; the latest one wins.
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Timestamp < raw[j].Timestamp })
	bars := make([]model.PriceBar, 0, len(raw))
	for _, rb := range raw {
		day := model.Day(time.Unix(rb.Timestamp, 0).UTC())
		if rb.Close <= 0 || day.Before(from) || day.After(to) {
			continue
		}
		bars = append(bars, model.PriceBar{
			Date:   day,
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		})
	}
	bars = model.UniqueDays(bars)
	f.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("fetched bars")
	return bars, nil
}
