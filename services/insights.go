package services

import (
	"fmt"
	"sort"
	"strings"

	"property-recommender/models"
	"property-recommender/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByCity: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var rented []*models.Listing
	var sized []*models.Listing

	for _, l := range listings {
		if l.Rent > 0 {
			rented = append(rented, l)
		}
		if l.Size > 0 {
			sized = append(sized, l)
		}
		if l.City != "" {
			report.ListingsByCity[l.City]++
		}
	}

	// Rent stats (only listings with rent > 0)
	if len(rented) > 0 {
		report.MinRent = rented[0].Rent
		report.MaxRent = rented[0].Rent
		report.MostExpensive = rented[0]
		var total float64
		for _, l := range rented {
			total += float64(l.Rent)
			if l.Rent < report.MinRent {
				report.MinRent = l.Rent
			}
			if l.Rent > report.MaxRent {
				report.MaxRent = l.Rent
				report.MostExpensive = l
			}
		}
		report.AverageRent = round2(total / float64(len(rented)))
	}

	// Top 5 by size
	sort.SliceStable(sized, func(i, j int) bool {
		return sized[i].Size > sized[j].Size
	})
	if len(sized) > 5 {
		report.Largest = sized[:5]
	} else {
		report.Largest = sized
	}

	s.logger.Debug("[insights] %d listings across %d cities", report.TotalListings, len(report.ListingsByCity))
	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 RENTAL DATASET INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Cities         : \033[1m%d\033[0m\n", len(r.ListingsByCity))
	fmt.Println()

	fmt.Printf("\033[1;33m  Rent Statistics (per month)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AverageRent > 0 {
		fmt.Printf("  Average rent : \033[1;32m₹%.2f\033[0m\n", r.AverageRent)
		fmt.Printf("  Minimum rent : \033[1;32m₹%d\033[0m\n", r.MinRent)
		fmt.Printf("  Maximum rent : \033[1;32m₹%d\033[0m\n", r.MaxRent)
	} else {
		fmt.Printf("  No rent data available\n")
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  #%d %d BHK, %s\n", r.MostExpensive.PropertyID, r.MostExpensive.BHK,
			truncate(r.MostExpensive.AreaLocality, 40))
		fmt.Printf("  City : %s\n", r.MostExpensive.City)
		fmt.Printf("  Rent : \033[1;31m₹%d/month\033[0m\n", r.MostExpensive.Rent)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Top 5 Largest Properties\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.Largest) == 0 {
		fmt.Printf("  No size data found\n")
	} else {
		for i, l := range r.Largest {
			label := truncate(fmt.Sprintf("#%d %s", l.PropertyID, l.City), 38)
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%d sqft\033[0m\n", i+1, label, l.Size)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by City\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsByCity) == 0 {
		fmt.Printf("  No city data\n")
	} else {
		type cityCount struct {
			city  string
			count int
		}
		var cities []cityCount
		for city, cnt := range r.ListingsByCity {
			cities = append(cities, cityCount{city, cnt})
		}
		sort.Slice(cities, func(i, j int) bool {
			if cities[i].count != cities[j].count {
				return cities[i].count > cities[j].count
			}
			return cities[i].city < cities[j].city
		})
		max := cities[0].count
		for _, cc := range cities {
			bar := strings.Repeat("█", 1+cc.count*30/max)
			fmt.Printf("  %-20s %s (%d)\n", truncate(cc.city, 18), bar, cc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
