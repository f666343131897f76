package firestoredb

import (
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
)

func productFromDoc(id string, data map[string]interface{}) models.Product {
	p := models.Product{
		ID:          id,
		Name:        asString(data["name"]),
		Price:       asInt64(data["price"]),
		Category:    asString(data["category"]),
		SubCategory: asString(data["subCategory"]),
		Images:      asStringSlice(data["images"]),
		Img:         asString(data["img"]),
		SoldOut:     asBool(data["soldOut"]),
		Sale:        asBool(data["sale"]),
	}
	if t := asTime(data["timestamp"]); t != nil {
		p.CreatedAt = *t
	}
	return p
}

func orderFromDoc(id string, data map[string]interface{}) models.Order {
	return models.Order{
		ID:         id,
		TrackingID: asString(data["trackingId"]),
		UserEmail:  asString(data["userEmail"]),
		Status:     asString(data["status"]),
		Product:    asString(data["product"]),
		Price:      asInt64(data["price"]),
		CreatedAt:  asTime(data["timestamp"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asInt64 accepts integers, floats and numeric strings since product prices were entered by hand
func asInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v interface{}) *time.Time {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return nil
		}
		t := x.UTC()
		return &t
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil
		}
		t := x.UTC()
		return &t
	default:
		return nil
	}
}

func asStringSlice(v interface{}) []string {
	out := []string{}
	switch xs := v.(type) {
	case []interface{}:
		for _, x := range xs {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range xs {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
