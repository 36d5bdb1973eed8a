package scrape

// ProductSchema returns the JSON schema the backend uses to structure listing
// pages. Fields are optional throughout: the extractor downstream treats every
// absence or type mismatch as a degraded field, never an error.
func ProductSchema() map[string]any {
	str := map[string]any{"type": "string"}
	boolean := map[string]any{"type": "boolean"}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			// A. Basic product attributes
			"title":         str,
			"price":         str,
			"originalPrice": str,
			"rating":        str,
			"reviewsCount":  str,
			"bestseller":    boolean,
			"starSeller":    boolean,

			// B. Shop metadata
			"shop":               str,
			"delivery":           str,
			"shopPolicies":       str,
			"purchaseProtection": str,
			"return_policy_text": str,
			"paymentMethods": map[string]any{
				"type":  "array",
				"items": str,
			},

			// C. Images
			"images": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"url":      str,
						"alt_text": str,
					},
				},
			},

			// D. Description
			"description_text": str,

			// E. FAQ
			"faq_items": map[string]any{
				"type":  "array",
				"items": str,
			},
		},
	}
}
