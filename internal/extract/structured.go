package extract

import (
	"encoding/json"
	"os"
)

// StructuredRecord holds the fields derived from the structured JSON
// artifact. Parsed is false when the file is missing or unreadable, in which
// case every derived cell renders empty.
type StructuredRecord struct {
	Key
	Parsed bool

	Title                *string
	Price                *float64
	OriginalPrice        *float64
	Discount             *float64 // absent unless both prices parse
	Rating               *string
	ReviewsCount         *string
	Bestseller           bool
	StarSeller           bool
	Shop                 *string
	Delivery             *string
	ShopPolicies         string // "yes" / "no"
	PurchaseProtection   string
	ReturnPolicyText     string
	PaymentMethods       string // JSON-encoded list, non-ASCII preserved
	PaymentMethodsCount  int
	NumberOfImages       int
	FirstImageURL        *string
	AltTextAvailable     bool
	DescriptionText      string
	DescriptionWordCount int
	DescriptionCharCount int
	NumberOfFAQItems     int
}

var structuredHeader = []string{
	"query_id", "channel", "rank",
	"title", "price", "originalPrice", "discount", "rating", "reviewsCount",
	"bestseller", "starSeller", "shop", "delivery", "shopPolicies",
	"purchaseProtection", "return_policy_text", "paymentMethods",
	"paymentMethods_count", "number_of_images", "first_image_url",
	"alt_text_available", "description_text", "description_word_count",
	"description_char_count", "number_of_faq_items",
}

// ExtractStructured derives the structured record for one index entry.
func ExtractStructured(entry IndexEntry) StructuredRecord {
	rec := StructuredRecord{Key: entry.Key}

	data, err := os.ReadFile(entry.JSONPath)
	if err != nil {
		return rec
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return rec
	}
	rec.Parsed = true

	rec.Title = optString(doc["title"])
	rec.Price = parsePrice(doc["price"])
	rec.OriginalPrice = parsePrice(doc["originalPrice"])
	rec.Discount = discount(rec.Price, rec.OriginalPrice)
	rec.Rating = optString(doc["rating"])
	rec.ReviewsCount = optString(doc["reviewsCount"])
	rec.Bestseller = truthy(doc["bestseller"])
	rec.StarSeller = truthy(doc["starSeller"])
	rec.Shop = optString(doc["shop"])
	rec.Delivery = optString(doc["delivery"])
	rec.ShopPolicies = yesNo(truthy(doc["shopPolicies"]))
	rec.PurchaseProtection = yesNo(truthy(doc["purchaseProtection"]))
	if s := optString(doc["return_policy_text"]); s != nil {
		rec.ReturnPolicyText = *s
	}

	methods := asList(doc["paymentMethods"])
	encoded, err := json.Marshal(methods)
	if err == nil {
		rec.PaymentMethods = string(encoded)
	}
	rec.PaymentMethodsCount = len(methods)

	imgs := asList(doc["images"])
	rec.NumberOfImages = len(imgs)
	if len(imgs) > 0 {
		if first, ok := imgs[0].(map[string]any); ok {
			rec.FirstImageURL = optString(first["url"])
		}
	}
	for _, img := range imgs {
		m, ok := img.(map[string]any)
		if ok && truthy(m["alt_text"]) {
			rec.AltTextAvailable = true
			break
		}
	}

	if s, ok := doc["description_text"].(string); ok {
		rec.DescriptionText = s
	}
	rec.DescriptionWordCount = wordCount(rec.DescriptionText)
	rec.DescriptionCharCount = len([]rune(rec.DescriptionText))

	rec.NumberOfFAQItems = len(asList(doc["faq_items"]))
	return rec
}

// discount is (original-price)/original rounded to 4 decimals when both
// prices parse and 0 < price < original; 0 when both parse but the ordering
// does not hold; absent when either is unparsable.
func discount(price, original *float64) *float64 {
	if price == nil || original == nil {
		return nil
	}
	d := 0.0
	if *price > 0 && *original > 0 && *price < *original {
		d = round4((*original - *price) / *original)
	}
	return &d
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}

func optString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// truthy mirrors loose boolean coercion: false, nil, "", 0, and empty
// containers are false, everything else true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// asList coerces to a list, degrading type mismatches to empty.
func asList(v any) []any {
	l, ok := v.([]any)
	if !ok {
		return []any{}
	}
	return l
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (r StructuredRecord) cells() []string {
	cells := r.Key.cells()
	if !r.Parsed {
		return append(cells, make([]string, len(structuredHeader)-3)...)
	}
	return append(cells,
		cellString(r.Title),
		cellFloat(r.Price),
		cellFloat(r.OriginalPrice),
		cellFloat(r.Discount),
		cellString(r.Rating),
		cellString(r.ReviewsCount),
		cellBool(r.Bestseller),
		cellBool(r.StarSeller),
		cellString(r.Shop),
		cellString(r.Delivery),
		r.ShopPolicies,
		r.PurchaseProtection,
		r.ReturnPolicyText,
		r.PaymentMethods,
		cellInt(r.PaymentMethodsCount),
		cellInt(r.NumberOfImages),
		cellString(r.FirstImageURL),
		cellBool(r.AltTextAvailable),
		r.DescriptionText,
		cellInt(r.DescriptionWordCount),
		cellInt(r.DescriptionCharCount),
		cellInt(r.NumberOfFAQItems),
	)
}
