package signals

// headersProbe implements probe E: presence of five common security
// response headers, matched case-insensitively (the fetch engine already
// lowercases header names).
func headersProbe(h map[string][]string) Headers {
	has := func(name string) bool {
		_, ok := h[name]
		return ok
	}
	return Headers{
		StrictTransportSecurity: has("strict-transport-security"),
		ContentSecurityPolicy:   has("content-security-policy"),
		XFrameOptions:           has("x-frame-options"),
		XContentTypeOptions:     has("x-content-type-options"),
		ReferrerPolicy:          has("referrer-policy"),
	}
}
