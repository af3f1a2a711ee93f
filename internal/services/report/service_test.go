package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/common"
	"github.com/tiemoko/brvmwatch/internal/interfaces"
	"github.com/tiemoko/brvmwatch/internal/models"
)

type fakeStorage struct {
	txs    []models.Transaction
	quotes map[string]*models.Quote
	series map[string]models.PriceSeries
	raw    map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		quotes: make(map[string]*models.Quote),
		series: make(map[string]models.PriceSeries),
		raw:    make(map[string][]byte),
	}
}

func (f *fakeStorage) LedgerStore() interfaces.LedgerStore       { return f }
func (f *fakeStorage) AlertRuleStore() interfaces.AlertRuleStore { return nil }
func (f *fakeStorage) WatchlistStore() interfaces.WatchlistStore { return nil }
func (f *fakeStorage) MarketStore() interfaces.MarketStore       { return f }
func (f *fakeStorage) Close() error                              { return nil }

func (f *fakeStorage) WriteRaw(subdir, key string, data []byte) error {
	f.raw[subdir+"/"+key] = data
	return nil
}

func (f *fakeStorage) AppendTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	f.txs = append(f.txs, *tx)
	return tx.ID, nil
}

func (f *fakeStorage) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeStorage) ListTransactionsByTicker(ctx context.Context, userID, ticker string) ([]models.Transaction, error) {
	txs, _ := f.ListTransactions(ctx, userID)
	var out []models.Transaction
	for _, tx := range txs {
		if tx.Ticker == ticker {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeStorage) ListUsers(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var users []string
	for _, tx := range f.txs {
		if _, ok := seen[tx.UserID]; ok {
			continue
		}
		seen[tx.UserID] = struct{}{}
		users = append(users, tx.UserID)
	}
	return users, nil
}

func (f *fakeStorage) SaveQuote(ctx context.Context, quote *models.Quote) error {
	f.quotes[quote.Ticker] = quote
	return nil
}

func (f *fakeStorage) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	quote, ok := f.quotes[ticker]
	if !ok {
		return nil, models.ErrNotFound
	}
	return quote, nil
}

func (f *fakeStorage) MergeSeries(ctx context.Context, ticker string, points models.PriceSeries) error {
	f.series[ticker] = f.series[ticker].Merge(points)
	return nil
}

func (f *fakeStorage) GetSeries(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	return f.series[ticker].Slice(from, to), nil
}

type fakeProvider struct {
	price map[string]decimal.Decimal
	err   error
}

func (f *fakeProvider) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	price, ok := f.price[ticker]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.Quote{Ticker: ticker, Price: price, Currency: "XOF", FetchedAt: time.Now()}, nil
}

func (f *fakeProvider) GetHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	return nil, models.ErrNotFound
}

type fakeSummarizer struct {
	text string
	err  error
}

func (f *fakeSummarizer) SummarizeReport(ctx context.Context, report *models.Report) (string, error) {
	return f.text, f.err
}

func buy(userID, ticker string, qty, price int64, seq uint64) models.Transaction {
	return models.Transaction{
		ID:        fmt.Sprintf("tx-%d", seq),
		UserID:    userID,
		Ticker:    ticker,
		StockName: ticker,
		Side:      models.SideBuy,
		Quantity:  decimal.NewFromInt(qty),
		UnitPrice: decimal.NewFromInt(price),
		Timestamp: time.Date(2025, 1, int(seq), 0, 0, 0, 0, time.UTC),
		Seq:       seq,
	}
}

func sell(userID, ticker string, qty, price int64, seq uint64) models.Transaction {
	tx := buy(userID, ticker, qty, price, seq)
	tx.Side = models.SideSell
	return tx
}

func newTestService(storage *fakeStorage, provider *fakeProvider, summarizer interfaces.Summarizer) *Service {
	return NewService(storage, provider, summarizer, common.NewSilentLogger(), nil)
}

func TestBuildReport_Totals(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{
		buy("u1", "SNTS", 10, 1000, 1),
		buy("u1", "ETIT", 5, 2000, 2),
	}
	provider := &fakeProvider{price: map[string]decimal.Decimal{
		"SNTS": decimal.NewFromInt(1200),
		"ETIT": decimal.NewFromInt(1800),
	}}
	svc := newTestService(storage, provider, nil)

	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if len(report.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(report.Lines))
	}
	if report.Lines[0].Ticker != "ETIT" || report.Lines[1].Ticker != "SNTS" {
		t.Errorf("lines not sorted by ticker: %s, %s", report.Lines[0].Ticker, report.Lines[1].Ticker)
	}

	if !report.TotalCost.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("total cost = %s, want 20000", report.TotalCost)
	}
	if !report.TotalValue.Equal(decimal.NewFromInt(21000)) {
		t.Errorf("total value = %s, want 21000", report.TotalValue)
	}
	if !report.TotalUnrealizedPnL.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("total unrealized = %s, want 1000", report.TotalUnrealizedPnL)
	}
	if report.TotalReturnPct != 5 {
		t.Errorf("total return = %v%%, want 5%%", report.TotalReturnPct)
	}

	snts := report.Lines[1]
	if !snts.MarketValue.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("SNTS market value = %s, want 12000", snts.MarketValue)
	}
	if !snts.UnrealizedPnL.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("SNTS unrealized = %s, want 2000", snts.UnrealizedPnL)
	}
	if snts.UnrealizedPnLPct != 20 {
		t.Errorf("SNTS unrealized pct = %v, want 20", snts.UnrealizedPnLPct)
	}

	wantWeight := 12000.0 / 21000.0 * 100
	if diff := snts.WeightPct - wantWeight; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("SNTS weight = %v, want %v", snts.WeightPct, wantWeight)
	}
}

func TestBuildReport_Deterministic(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{
		buy("u1", "SNTS", 10, 1000, 1),
		buy("u1", "ETIT", 5, 2000, 2),
		buy("u1", "BICC", 20, 450, 3),
	}
	provider := &fakeProvider{price: map[string]decimal.Decimal{
		"SNTS": decimal.NewFromInt(1200),
		"ETIT": decimal.NewFromInt(1800),
		"BICC": decimal.NewFromInt(500),
	}}
	svc := newTestService(storage, provider, nil)

	first, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	second, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	// Only the generation timestamp may differ between identical builds.
	second.GeneratedAt = first.GeneratedAt

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("identical inputs must marshal byte-identically:\n%s\n%s", a, b)
	}
}

func TestBuildReport_ClosedPositionKeepsRealized(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{
		buy("u1", "SNTS", 10, 100, 1),
		sell("u1", "SNTS", 10, 150, 2),
	}
	svc := newTestService(storage, &fakeProvider{}, nil)

	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if len(report.Lines) != 0 {
		t.Errorf("closed position should have no line, got %d", len(report.Lines))
	}
	if !report.TotalRealizedPnL.Equal(decimal.NewFromInt(500)) {
		t.Errorf("total realized = %s, want 500", report.TotalRealizedPnL)
	}
	if !report.TotalCost.IsZero() {
		t.Errorf("total cost = %s, want 0", report.TotalCost)
	}
}

func TestBuildReport_PriceFallsBackToCache(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{buy("u1", "SNTS", 10, 1000, 1)}
	storage.quotes["SNTS"] = &models.Quote{Ticker: "SNTS", Price: decimal.NewFromInt(1100), Currency: "XOF"}
	provider := &fakeProvider{err: fmt.Errorf("upstream down")}
	svc := newTestService(storage, provider, nil)

	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	line := report.Lines[0]
	if line.PriceMissing {
		t.Error("cached quote should avoid PriceMissing")
	}
	if !line.CurrentPrice.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("current price = %s, want cached 1100", line.CurrentPrice)
	}
}

func TestBuildReport_PriceMissing(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{buy("u1", "SNTS", 10, 1000, 1)}
	provider := &fakeProvider{err: fmt.Errorf("upstream down")}
	svc := newTestService(storage, provider, nil)

	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	line := report.Lines[0]
	if !line.PriceMissing {
		t.Error("no price anywhere should mark the line PriceMissing")
	}
	if !line.MarketValue.IsZero() {
		t.Errorf("market value = %s, want 0 when price missing", line.MarketValue)
	}
	if !report.TotalCost.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("cost basis must survive a missing price, got %s", report.TotalCost)
	}
}

func TestBuildReport_Narrative(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{buy("u1", "SNTS", 10, 1000, 1)}
	provider := &fakeProvider{price: map[string]decimal.Decimal{"SNTS": decimal.NewFromInt(1200)}}

	svc := newTestService(storage, provider, &fakeSummarizer{text: "Portfolio up 20% on SNTS."})
	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{IncludeNarrative: true})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if report.Narrative != "Portfolio up 20% on SNTS." {
		t.Errorf("narrative = %q", report.Narrative)
	}

	// A summarizer failure degrades to no narrative, never a failed report.
	svc = newTestService(storage, provider, &fakeSummarizer{err: fmt.Errorf("model unavailable")})
	report, err = svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{IncludeNarrative: true})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if report.Narrative != "" {
		t.Errorf("narrative = %q, want empty on summarizer failure", report.Narrative)
	}
}

func TestBuildReport_AnalysisAnnotations(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{buy("u1", "SNTS", 10, 1000, 1)}

	// Steadily rising series makes price > MA20 > MA50.
	series := make(models.PriceSeries, 60)
	for i := range series {
		series[i] = models.PricePoint{
			Date:  time.Now().UTC().Add(-time.Duration(60-i) * 24 * time.Hour),
			Close: decimal.NewFromInt(1000 + int64(i)*10),
		}
	}
	storage.series["SNTS"] = series

	provider := &fakeProvider{price: map[string]decimal.Decimal{"SNTS": decimal.NewFromInt(1700)}}
	svc := newTestService(storage, provider, nil)

	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{IncludeAnalysis: true})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	line := report.Lines[0]
	if line.Trend != "bullish" {
		t.Errorf("trend = %q, want bullish", line.Trend)
	}
	if line.Signal != "BUY" {
		t.Errorf("signal = %q, want BUY", line.Signal)
	}
	if line.PERatio != 0 {
		t.Errorf("pe ratio = %v, want 0 without a configured earnings figure", line.PERatio)
	}
}

func TestBuildReport_PERatioFromConfiguredEarnings(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{buy("u1", "SNTS", 10, 1000, 1)}
	storage.series["SNTS"] = models.PriceSeries{
		{Date: time.Now().UTC().Add(-48 * time.Hour), Close: decimal.NewFromInt(1600)},
		{Date: time.Now().UTC().Add(-24 * time.Hour), Close: decimal.NewFromInt(1650)},
	}

	provider := &fakeProvider{price: map[string]decimal.Decimal{"SNTS": decimal.NewFromInt(1700)}}
	svc := NewService(storage, provider, nil, common.NewSilentLogger(), map[string]float64{"SNTS": 100})

	report, err := svc.BuildReport(context.Background(), "u1", interfaces.ReportOptions{IncludeAnalysis: true})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if pe := report.Lines[0].PERatio; pe != 17 {
		t.Errorf("pe ratio = %v, want 17 (1700 / 100)", pe)
	}
}

func TestSaveAllocationChart(t *testing.T) {
	storage := newFakeStorage()
	storage.txs = []models.Transaction{
		buy("u1", "SNTS", 10, 1000, 1),
		buy("u1", "ETIT", 5, 2000, 2),
	}
	provider := &fakeProvider{price: map[string]decimal.Decimal{
		"SNTS": decimal.NewFromInt(1200),
		"ETIT": decimal.NewFromInt(1800),
	}}
	svc := newTestService(storage, provider, nil)

	key, err := svc.SaveAllocationChart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SaveAllocationChart: %v", err)
	}
	if key != "u1.png" {
		t.Errorf("key = %q, want u1.png", key)
	}
	if len(storage.raw["charts/"+key]) == 0 {
		t.Error("expected PNG bytes written to charts subdir")
	}
}
