package golden

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/barbashov/chatguard/internal/apperrors"
)

// Replayer serves recorded responses by pattern-matching incoming requests
// against a loaded Scenario (§4.10). Each recorded call is used by at most
// one matching request, in file order.
type Replayer struct {
	calls []Call
	used  []bool
	mu    sync.Mutex
}

// NewReplayer constructs a Replayer from a loaded scenario.
func NewReplayer(scenario Scenario) *Replayer {
	return &Replayer{calls: scenario.Recordings, used: make([]bool, len(scenario.Recordings))}
}

// LoadScenario reads a golden-data file, supporting both the current
// {metadata, recordings} format and the legacy bare-array format (§6).
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}

	var scenario Scenario
	if err := json.Unmarshal(data, &scenario); err == nil && (scenario.Recordings != nil || looksLikeCurrentFormat(data)) {
		return scenario, nil
	}

	var legacy []legacyCall
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Scenario{}, fmt.Errorf("golden: unrecognized scenario format: %w", err)
	}

	calls := make([]Call, 0, len(legacy))
	for _, lc := range legacy {
		ts, _ := time.Parse(time.RFC3339, lc.Timestamp)
		calls = append(calls, Call{Request: lc.Request, Response: lc.Response, Timestamp: ts})
	}
	return Scenario{Recordings: calls}, nil
}

func looksLikeCurrentFormat(data []byte) bool {
	var probe struct {
		Metadata json.RawMessage `json:"metadata"`
	}
	return json.Unmarshal(data, &probe) == nil && len(probe.Metadata) > 0
}

// legacyCall is the pre-§6 bare-array-of-calls format, read-only.
type legacyCall struct {
	Call     json.RawMessage `json:"call,omitempty"`
	Request  Request         `json:"request"`
	Response Response        `json:"response"`
	Timestamp string         `json:"timestamp"`
}

// Transport returns the http.RoundTripper to install for the replay scope.
func (r *Replayer) Transport() http.RoundTripper { return r }

// RoundTrip implements http.RoundTripper by matching req against the
// recorded calls and synthesizing a response (§4.10).
func (r *Replayer) RoundTrip(req *http.Request) (*http.Response, error) {
	actual, err := captureRequest(req)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, call := range r.calls {
		if r.used[i] {
			continue
		}
		if matchesRequest(call.Request, actual) {
			r.used[i] = true
			return synthesizeResponse(call.Response), nil
		}
	}

	return nil, fmt.Errorf("golden: no recorded call matches %s %s: %w", req.Method, req.URL.String(), apperrors.ErrReplayMiss)
}

func synthesizeResponse(resp Response) *http.Response {
	header := http.Header{}
	for k, v := range resp.Headers {
		header.Set(k, v)
	}
	body := io.NopCloser(bytes.NewBufferString(resp.Content))
	return &http.Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}
}

func matchesRequest(recorded, actual Request) bool {
	if !strings.EqualFold(recorded.Method, actual.Method) {
		return false
	}
	if !maskedMatch(recorded.URL, actual.URL) {
		return false
	}
	if !maskedMapMatch(recorded.Params, actual.Params) {
		return false
	}
	recordedBody, actualBody := "", ""
	if recorded.Body != nil {
		recordedBody = *recorded.Body
	}
	if actual.Body != nil {
		actualBody = *actual.Body
	}
	return maskedMatch(recordedBody, actualBody)
}

func maskedMapMatch(recorded, actual map[string]string) bool {
	if len(recorded) != len(actual) {
		return false
	}
	for k, v := range recorded {
		av, ok := actual[k]
		if !ok || !maskedMatch(v, av) {
			return false
		}
	}
	return true
}

// maskedMatch treats every run of Masked in recorded as the regex `[^&]*`
// anchored at its position, so a request carrying a real secret still
// matches a recording that stored only the placeholder (§4.10).
func maskedMatch(recorded, actual string) bool {
	if !strings.Contains(recorded, Masked) {
		return recorded == actual
	}

	parts := strings.Split(recorded, Masked)
	var pattern strings.Builder
	pattern.WriteString("^")
	for i, part := range parts {
		if i > 0 {
			pattern.WriteString("[^&]*")
		}
		pattern.WriteString(regexp.QuoteMeta(part))
	}
	pattern.WriteString("$")

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return false
	}
	return re.MatchString(actual)
}

// VerifyAllCallsUsed reports whether every recorded call was matched during
// replay, for tests asserting full call coverage (§4.10).
func (r *Replayer) VerifyAllCallsUsed() (ok bool, unused int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, used := range r.used {
		if !used {
			unused++
		}
	}
	return unused == 0, unused
}
