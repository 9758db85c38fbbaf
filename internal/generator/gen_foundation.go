package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

type locationTemplate struct {
	city, country, timezone string
}

var locationBundles = []locationTemplate{
	{"San Francisco", "United States", "America/Los_Angeles"},
	{"New York", "United States", "America/New_York"},
	{"Austin", "United States", "America/Chicago"},
	{"Toronto", "Canada", "America/Toronto"},
	{"London", "United Kingdom", "Europe/London"},
	{"Dublin", "Ireland", "Europe/Dublin"},
	{"Berlin", "Germany", "Europe/Berlin"},
	{"Warsaw", "Poland", "Europe/Warsaw"},
	{"Singapore", "Singapore", "Asia/Singapore"},
	{"Tokyo", "Japan", "Asia/Tokyo"},
	{"Bengaluru", "India", "Asia/Kolkata"},
	{"Sydney", "Australia", "Australia/Sydney"},
	{"São Paulo", "Brazil", "America/Sao_Paulo"},
	{"Mexico City", "Mexico", "America/Mexico_City"},
	{"Johannesburg", "South Africa", "Africa/Johannesburg"},
}

// runFoundation generates the location layer (L00). Locations are the
// root of the site/geography hierarchy; the first is always flagged the
// headquarters.
func runFoundation(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeLocation)
	if count < 1 {
		count = 1
	}
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		bundle := locationBundles[i%len(locationBundles)]
		e := model.NewEntity(model.TypeLocation, fmt.Sprintf("%s Office", bundle.city))
		e.Description = fmt.Sprintf("%s office serving the %s region.", bundle.city, bundle.country)
		setAll(e, map[string]any{
			"address":         fmt.Sprintf("%d Market St", 100+i*10),
			"city":            bundle.city,
			"country":         bundle.country,
			"timezone":        bundle.timezone,
			"is_headquarters": i == 0,
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func setAll(e *model.Entity, fields map[string]any) {
	for name, value := range fields {
		if err := e.Set(name, value); err != nil {
			panic(fmt.Sprintf("generator: %s.%s: %v", e.Type, name, err))
		}
	}
}
