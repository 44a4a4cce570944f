package controllers

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/dcode-github/property_dealer/backend/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var operatorFields = map[string]bool{
	"price": true, "area": true, "bedrooms": true, "bathrooms": true,
}

// parsePropertyFilter reads listing query parameters. Both the plain form
// (minPrice=, bedrooms=) and the bracket form (price[gte]=, bedrooms[lte]=)
// are accepted for numeric fields.
func parsePropertyFilter(q url.Values) (models.PropertyFilter, error) {
	f := models.PropertyFilter{
		PropertyType: strings.TrimSpace(q.Get("propertyType")),
		Address:      strings.TrimSpace(q.Get("address")),
		Keyword:      strings.TrimSpace(q.Get("keyword")),
		Status:       strings.TrimSpace(q.Get("status")),
		Featured:     q.Get("featured") == "true",
		NewestFirst:  true,
	}
	for _, a := range strings.Split(q.Get("amenities"), ",") {
		if a = strings.TrimSpace(a); a != "" {
			f.Amenities = append(f.Amenities, a)
		}
	}

	var err error
	if f.MinPrice, err = floatParam(q, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = floatParam(q, "maxPrice"); err != nil {
		return f, err
	}
	if f.MinArea, err = floatParam(q, "minArea"); err != nil {
		return f, err
	}
	if f.MaxArea, err = floatParam(q, "maxArea"); err != nil {
		return f, err
	}
	if bedrooms, err := intParam(q, "bedrooms"); err != nil {
		return f, err
	} else if bedrooms != nil {
		applyOp(&f.MinBedrooms, &f.MaxBedrooms, "eq", *bedrooms)
	}
	if bathrooms, err := intParam(q, "bathrooms"); err != nil {
		return f, err
	} else if bathrooms != nil {
		applyOp(&f.MinBathrooms, &f.MaxBathrooms, "eq", *bathrooms)
	}

	lat, err := floatParam(q, "latitude")
	if err != nil {
		return f, err
	}
	lng, err := floatParam(q, "longitude")
	if err != nil {
		return f, err
	}
	if lat != nil && lng != nil {
		f.Latitude, f.Longitude = lat, lng
	}

	for rawKey, values := range q {
		field, op, ok := splitOperator(rawKey)
		if !ok || len(values) == 0 || values[0] == "" {
			continue
		}
		if !operatorFields[field] {
			log.Printf("Unsupported filter field in query param %s", rawKey)
			continue
		}
		if op != "eq" && op != "gte" && op != "lte" {
			log.Printf("Unknown operator key: %s in query param %s", op, rawKey)
			continue
		}

		switch field {
		case "price", "area":
			v, err := strconv.ParseFloat(values[0], 64)
			if err != nil {
				return f, fmt.Errorf("invalid value for %s", rawKey)
			}
			if field == "price" {
				applyOp(&f.MinPrice, &f.MaxPrice, op, v)
			} else {
				applyOp(&f.MinArea, &f.MaxArea, op, v)
			}
		case "bedrooms", "bathrooms":
			v, err := strconv.Atoi(values[0])
			if err != nil {
				return f, fmt.Errorf("invalid value for %s", rawKey)
			}
			if field == "bedrooms" {
				applyOp(&f.MinBedrooms, &f.MaxBedrooms, op, v)
			} else {
				applyOp(&f.MinBathrooms, &f.MaxBathrooms, op, v)
			}
		}
	}

	limit := int64(defaultPageSize)
	if l, err := intParam(q, "limit"); err != nil {
		return f, err
	} else if l != nil && *l > 0 {
		limit = int64(min(*l, maxPageSize))
	}
	page := int64(1)
	if p, err := intParam(q, "page"); err != nil {
		return f, err
	} else if p != nil && *p > 1 {
		page = int64(*p)
	}
	f.Limit = limit
	f.Skip = (page - 1) * limit
	return f, nil
}

func splitOperator(key string) (field, op string, ok bool) {
	field, rest, found := strings.Cut(key, "[")
	if !found || !strings.HasSuffix(rest, "]") {
		return "", "", false
	}
	return field, strings.TrimSuffix(rest, "]"), true
}

func applyOp[T int | float64](lo, hi **T, op string, v T) {
	switch op {
	case "eq":
		a, b := v, v
		*lo, *hi = &a, &b
	case "gte":
		*lo = &v
	case "lte":
		*hi = &v
	}
}

func floatParam(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s", key)
	}
	return &v, nil
}

func intParam(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s", key)
	}
	return &v, nil
}
