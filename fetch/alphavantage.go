// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fetch downloads company, quote, and financial data from the
// Alpha Vantage API and shapes it into warehouse extract rows.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

var (
	ErrStatus = errors.New("status code is invalid")
	ErrEmpty  = errors.New("response carries no records")
)

// Client calls the Alpha Vantage API. The free tier allows 5 requests per
// minute, so every request waits on the limiter first.
type Client struct {
	apiKey  string
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

// New creates a Client using the given API key.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  resty.New().SetQueryParam("apikey", apiKey),
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
	}
}

// SetBaseURL points the client at an alternate endpoint. Used by tests.
func (av *Client) SetBaseURL(baseURL string) {
	av.baseURL = baseURL
}

type dailyQuote struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

// Overview is the company profile Alpha Vantage returns for a ticker. All
// numeric fields arrive as strings, sometimes "None" or "-".
type Overview struct {
	Symbol            string `json:"Symbol"`
	Name              string `json:"Name"`
	Sector            string `json:"Sector"`
	Industry          string `json:"Industry"`
	Address           string `json:"Address"`
	FullTimeEmployees string `json:"FullTimeEmployees"`
	MarketCap         string `json:"MarketCapitalization"`
	PERatio           string `json:"PERatio"`
	ForwardPE         string `json:"ForwardPE"`
	PEGRatio          string `json:"PEGRatio"`
	PriceToSales      string `json:"PriceToSalesRatioTTM"`
	PriceToBook       string `json:"PriceToBookRatio"`
	EVToEBITDA        string `json:"EVToEBITDA"`
	EVToRevenue       string `json:"EVToRevenue"`
	DividendYield     string `json:"DividendYield"`
	Beta              string `json:"Beta"`
	ShortRatio        string `json:"ShortRatio"`
}

type quarterlyReport struct {
	FiscalDateEnding          string `json:"fiscalDateEnding"`
	TotalRevenue              string `json:"totalRevenue"`
	GrossProfit               string `json:"grossProfit"`
	OperatingIncome           string `json:"operatingIncome"`
	NetIncome                 string `json:"netIncome"`
	EBITDA                    string `json:"ebitda"`
	ResearchAndDevelopment    string `json:"researchAndDevelopment"`
	ReportedEPS               string `json:"reportedEPS"`
	CashAndCashEquivalents    string `json:"cashAndCashEquivalentsAtCarryingValue"`
	ShortLongTermDebtTotal    string `json:"shortLongTermDebtTotal"`
	OperatingCashflow         string `json:"operatingCashflow"`
	CapitalExpenditures       string `json:"capitalExpenditures"`
	TotalAssetsReported       string `json:"totalAssets"`
	TotalLiabilitiesReported  string `json:"totalLiabilities"`
	TotalShareholderEquityRep string `json:"totalShareholderEquity"`
}

type incomeStatement struct {
	Symbol           string            `json:"symbol"`
	QuarterlyReports []quarterlyReport `json:"quarterlyReports"`
}

// safeFloat parses Alpha Vantage numeric strings, treating "None", "-",
// and empty values as zero.
func safeFloat(value string) float64 {
	switch value {
	case "", "None", "-":
		return 0
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func (av *Client) get(ctx context.Context, params map[string]string, result any) ([]byte, error) {
	if err := av.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := av.client.R().SetContext(ctx).SetQueryParams(params)
	if result != nil {
		req = req.SetResult(result)
	}

	resp, err := req.Get(av.baseURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return resp.Body(), nil
}

// DailyQuotes fetches the TIME_SERIES_DAILY endpoint as CSV and converts
// each trading day to a stock fact. MarketCap is left zero; the overview
// call supplies it for the latest day only.
func (av *Client) DailyQuotes(ctx context.Context, ticker string) ([]warehouse.StockFact, error) {
	body, err := av.get(ctx, map[string]string{
		"function": "TIME_SERIES_DAILY",
		"symbol":   ticker,
		"datatype": "csv",
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch daily quotes for %s: %w", ticker, err)
	}

	quotes := []*dailyQuote{}
	if err := gocsv.UnmarshalBytes(body, &quotes); err != nil {
		return nil, fmt.Errorf("parse daily quotes for %s: %w", ticker, err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("daily quotes for %s: %w", ticker, ErrEmpty)
	}

	facts := make([]warehouse.StockFact, 0, len(quotes))
	for _, quote := range quotes {
		fact := warehouse.StockFact{
			Ticker:     ticker,
			Date:       quote.Timestamp,
			OpenPrice:  quote.Open,
			HighPrice:  quote.High,
			LowPrice:   quote.Low,
			ClosePrice: quote.Close,
			Volume:     quote.Volume,
		}
		if quote.Open > 0 {
			fact.DailyReturn = (quote.Close - quote.Open) / quote.Open
		}
		facts = append(facts, fact)
	}

	log.Debug().Str("Ticker", ticker).Int("Rows", len(facts)).Msg("fetched daily quotes")
	return facts, nil
}

// CompanyOverview fetches the OVERVIEW endpoint for a ticker.
func (av *Client) CompanyOverview(ctx context.Context, ticker string) (*Overview, error) {
	body, err := av.get(ctx, map[string]string{
		"function": "OVERVIEW",
		"symbol":   ticker,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch overview for %s: %w", ticker, err)
	}

	overview := &Overview{}
	if err := json.Unmarshal(body, overview); err != nil {
		return nil, fmt.Errorf("parse overview for %s: %w", ticker, err)
	}
	if overview.Symbol == "" {
		return nil, fmt.Errorf("overview for %s: %w", ticker, ErrEmpty)
	}

	return overview, nil
}

// Company converts an overview into a company extract row. The CEO and
// founding year are not carried by the API.
func (o *Overview) Company() warehouse.Company {
	return warehouse.Company{
		Ticker:        o.Symbol,
		CompanyName:   o.Name,
		Sector:        o.Sector,
		Industry:      o.Industry,
		Headquarters:  o.Address,
		Employees:     int(safeFloat(o.FullTimeEmployees)),
		MarketCapTier: marketCapTier(safeFloat(o.MarketCap)),
	}
}

// Valuation converts an overview into a valuation fact dated at the given
// trading day.
func (o *Overview) Valuation(date string) warehouse.ValuationFact {
	return warehouse.ValuationFact{
		Ticker:        o.Symbol,
		Date:          date,
		PERatio:       safeFloat(o.PERatio),
		ForwardPE:     safeFloat(o.ForwardPE),
		PEGRatio:      safeFloat(o.PEGRatio),
		PriceToSales:  safeFloat(o.PriceToSales),
		PriceToBook:   safeFloat(o.PriceToBook),
		EVToEBITDA:    safeFloat(o.EVToEBITDA),
		EVToRevenue:   safeFloat(o.EVToRevenue),
		DividendYield: safeFloat(o.DividendYield),
		Beta:          safeFloat(o.Beta),
		ShortRatio:    safeFloat(o.ShortRatio),
	}
}

func marketCapTier(marketCap float64) string {
	switch {
	case marketCap >= 200e9:
		return "Mega"
	case marketCap >= 10e9:
		return "Large"
	case marketCap >= 2e9:
		return "Mid"
	default:
		return "Small"
	}
}

// QuarterlyFinancials fetches the INCOME_STATEMENT endpoint and converts
// each quarterly report into a financial fact. Margins are computed locally
// when revenue is positive.
func (av *Client) QuarterlyFinancials(ctx context.Context, ticker string) ([]warehouse.FinancialFact, error) {
	statement := &incomeStatement{}
	if _, err := av.get(ctx, map[string]string{
		"function": "INCOME_STATEMENT",
		"symbol":   ticker,
	}, statement); err != nil {
		return nil, fmt.Errorf("fetch income statement for %s: %w", ticker, err)
	}
	if len(statement.QuarterlyReports) == 0 {
		return nil, fmt.Errorf("income statement for %s: %w", ticker, ErrEmpty)
	}

	facts := make([]warehouse.FinancialFact, 0, len(statement.QuarterlyReports))
	for _, report := range statement.QuarterlyReports {
		fact := warehouse.FinancialFact{
			Ticker:             ticker,
			QuarterEnd:         report.FiscalDateEnding,
			Revenue:            safeFloat(report.TotalRevenue),
			GrossProfit:        safeFloat(report.GrossProfit),
			OperatingIncome:    safeFloat(report.OperatingIncome),
			NetIncome:          safeFloat(report.NetIncome),
			EPS:                safeFloat(report.ReportedEPS),
			EBITDA:             safeFloat(report.EBITDA),
			TotalAssets:        safeFloat(report.TotalAssetsReported),
			TotalLiabilities:   safeFloat(report.TotalLiabilitiesReported),
			CashAndEquivalents: safeFloat(report.CashAndCashEquivalents),
			TotalDebt:          safeFloat(report.ShortLongTermDebtTotal),
			RnDExpense:         safeFloat(report.ResearchAndDevelopment),
		}

		fact.FreeCashFlow = safeFloat(report.OperatingCashflow) - safeFloat(report.CapitalExpenditures)

		if fact.Revenue > 0 {
			fact.GrossMargin = fact.GrossProfit / fact.Revenue
			fact.OperatingMargin = fact.OperatingIncome / fact.Revenue
			fact.NetMargin = fact.NetIncome / fact.Revenue
		}
		if equity := safeFloat(report.TotalShareholderEquityRep); equity > 0 {
			fact.ROE = fact.NetIncome / equity
		}
		if fact.TotalAssets > 0 {
			fact.ROA = fact.NetIncome / fact.TotalAssets
		}

		facts = append(facts, fact)
	}

	log.Debug().Str("Ticker", ticker).Int("Quarters", len(facts)).Msg("fetched quarterly financials")
	return facts, nil
}
