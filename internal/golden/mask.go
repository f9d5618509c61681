package golden

import (
	"regexp"
	"strings"
)

// DefaultKeyPatterns are the regexes matched against dict/header/param key
// names to decide whether their value should be masked (§4.9).
var DefaultKeyPatterns = []string{
	`(?i)api[_-]?key`,
	`(?i)token`,
	`(?i)auth`,
	`(?i)password`,
	`(?i)secret`,
	`(?i)key`,
}

// Masker scrubs secret values out of requests/responses before they are
// persisted or observed by any caller (§4.9).
type Masker struct {
	secrets     []string
	keyPatterns []*regexp.Regexp
}

// NewMasker builds a Masker from explicit secret strings and key-name regex
// patterns. Empty patterns fall back to DefaultKeyPatterns.
func NewMasker(secrets []string, keyPatterns []string) *Masker {
	if len(keyPatterns) == 0 {
		keyPatterns = DefaultKeyPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(keyPatterns))
	for _, p := range keyPatterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return &Masker{secrets: secrets, keyPatterns: compiled}
}

func (m *Masker) keyMatches(key string) bool {
	for _, re := range m.keyPatterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// maskString replaces every occurrence of every explicit secret in s.
func (m *Masker) maskString(s string) string {
	for _, secret := range m.secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, Masked)
	}
	return s
}

// maskStringMap masks a flat string-keyed map: values of matching keys are
// replaced wholesale, other values have embedded secrets substring-replaced.
func (m *Masker) maskStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if m.keyMatches(k) {
			out[k] = Masked
		} else {
			out[k] = m.maskString(v)
		}
	}
	return out
}

// MaskRequest masks url, headers, params, and body.
func (m *Masker) MaskRequest(req Request) Request {
	req.URL = m.maskString(req.URL)
	req.Headers = m.maskStringMap(req.Headers)
	req.Params = m.maskStringMap(req.Params)
	if req.Body != nil {
		masked := m.maskString(*req.Body)
		req.Body = &masked
	}
	return req
}

// MaskResponse masks headers and content.
func (m *Masker) MaskResponse(resp Response) Response {
	resp.Headers = m.maskStringMap(resp.Headers)
	resp.Content = m.maskString(resp.Content)
	return resp
}

// MaskCall masks both the request and response of a call.
func (m *Masker) MaskCall(c Call) Call {
	c.Request = m.MaskRequest(c.Request)
	c.Response = m.MaskResponse(c.Response)
	return c
}
