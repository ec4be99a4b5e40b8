package templates

// Brand holds the product details every template may show.
type Brand struct {
	AppName    string
	SupportURL string
}

// WithBrand returns a copy of data with the brand keys filled in. Keys the
// caller already set win.
func WithBrand(data map[string]any, b Brand) map[string]any {
	out := make(map[string]any, len(data)+2)
	if b.AppName != "" {
		out["app_name"] = b.AppName
	}
	if b.SupportURL != "" {
		out["support_url"] = b.SupportURL
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}
