package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"mercari-ingest/models"
	"mercari-ingest/utils"
)

const topSellerCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []models.CanonicalListing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByCondition: make(map[models.StandardCondition]int),
		ListingsByBrand:     make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced []*models.CanonicalListing
	sellers := make(map[string]models.SellerSummary)

	for i := range listings {
		l := &listings[i]
		report.ListingsByCondition[l.Condition]++

		if l.Brand != nil {
			report.ListingsByBrand[*l.Brand]++
		} else {
			report.Unbranded++
		}

		if l.Price > 0 {
			priced = append(priced, l)
		}

		seller := l.SellerInfo
		if seller.Rating != nil && seller.Name != unknownValue {
			if _, seen := sellers[seller.Name]; !seen {
				sellers[seller.Name] = models.SellerSummary{
					Name:       seller.Name,
					Rating:     *seller.Rating,
					TotalSales: seller.TotalSales,
				}
			}
		}
	}

	// Price stats (only listings with price > 0)
	if len(priced) > 0 {
		report.MostExpensive = priced[0]
		report.MinPrice = priced[0].Price
		var total float64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MostExpensive.Price {
				report.MostExpensive = l
			}
		}
		report.MaxPrice = round2(report.MostExpensive.Price)
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
	}

	top := make([]models.SellerSummary, 0, len(sellers))
	for _, sel := range sellers {
		top = append(top, sel)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Rating != top[j].Rating {
			return top[i].Rating > top[j].Rating
		}
		if top[i].TotalSales != top[j].TotalSales {
			return top[i].TotalSales > top[j].TotalSales
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > topSellerCount {
		top = top[:topSellerCount]
	}
	report.TopSellers = top

	s.logger.Debug("[insights] Report over %d listings (%d priced, %d rated sellers)",
		len(listings), len(priced), len(sellers))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  MERCARI LISTING INSIGHTS\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : %d\n", r.TotalListings)
	fmt.Fprintf(w, "  Unbranded      : %d\n\n", r.Unbranded)

	fmt.Fprintf(w, "  Price Statistics\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : $%.2f\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : $%.2f\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : $%.2f\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Most Expensive Listing\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Fprintf(w, "  Condition : %s\n", r.MostExpensive.Condition)
		fmt.Fprintf(w, "  Price     : $%.2f\n\n", r.MostExpensive.Price)
	}

	fmt.Fprintf(w, "  Listings by Condition\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, c := range models.Conditions() {
		if n := r.ListingsByCondition[c]; n > 0 {
			fmt.Fprintf(w, "  %s %s (%d)\n", pad(c.String(), 12), strings.Repeat("█", n), n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Listings by Brand\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByBrand) == 0 {
		fmt.Fprintf(w, "  No brand data\n")
	} else {
		type brandCount struct {
			brand string
			count int
		}
		var brands []brandCount
		for b, n := range r.ListingsByBrand {
			brands = append(brands, brandCount{b, n})
		}
		sort.Slice(brands, func(i, j int) bool {
			if brands[i].count != brands[j].count {
				return brands[i].count > brands[j].count
			}
			return brands[i].brand < brands[j].brand
		})
		for _, bc := range brands {
			fmt.Fprintf(w, "  %s %s (%d)\n", pad(truncate(bc.brand, 28), 30), strings.Repeat("█", bc.count), bc.count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Top Rated Sellers\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopSellers) == 0 {
		fmt.Fprintf(w, "  No rated sellers found\n")
	} else {
		for i, sel := range r.TopSellers {
			fmt.Fprintf(w, "  %d. %s %.2f ★ (%d sales)\n", i+1, pad(truncate(sel.Name, 28), 30), sel.Rating, sel.TotalSales)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max display columns; titles are often CJK.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
