package financing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency is an ISO currency code.
type Currency string

// Supported currencies.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
)

// Currencies returns every supported currency.
func Currencies() []Currency {
	return []Currency{USD, EUR, GBP, AUD, CAD}
}

// Years returns the tracked financing years, oldest first.
func Years() []int {
	return []int{2016, 2017, 2018, 2019, 2020}
}

// LatestYear is the most recent tracked year.
const LatestYear = 2020

// usdRates holds the value of one unit of each currency in US dollars,
// averaged per year. No live FX lookup is performed.
var usdRates = map[int]map[Currency]float64{
	2016: {USD: 1, EUR: 1.11, GBP: 1.35, AUD: 0.74, CAD: 0.7553},
	2017: {USD: 1, EUR: 1.13, GBP: 1.29, AUD: 0.77, CAD: 0.7713},
	2018: {USD: 1, EUR: 1.18, GBP: 1.33, AUD: 0.75, CAD: 0.7717},
	2019: {USD: 1, EUR: 1.12, GBP: 1.28, AUD: 0.70, CAD: 0.7538},
	2020: {USD: 1, EUR: 1.14, GBP: 1.28, AUD: 0.69, CAD: 0.7462},
}

// Convert converts amount from one currency to another at the given year's rate.
func Convert(year int, amount float64, from, to Currency) (float64, error) {
	rates, ok := usdRates[year]
	if !ok {
		return 0, fmt.Errorf("no exchange rates for %d", year)
	}
	fromRate, ok := rates[from]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", to)
	}
	return amount * fromRate / toRate, nil
}

// ParseAmount parses a raw amount such as "$1,234,567".
func ParseAmount(raw string) (float64, error) {
	s := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(raw))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse amount %q: not a finite number", raw)
	}
	return v, nil
}

// Billions parses a raw amount and scales it to billions.
func Billions(raw string) (float64, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	return v / 1e9, nil
}
