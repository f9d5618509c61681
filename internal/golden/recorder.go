package golden

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder wraps an underlying http.RoundTripper, forwarding every request
// and buffering a masked transcript of the exchange (§4.9). It is a scoped
// resource: construct it, install it via its Transport, and call Calls (or
// Save) when done. Recorder sessions must not overlap on the same process
// (§5 "Recorder buffer").
type Recorder struct {
	underlying http.RoundTripper
	masker     *Masker

	mu    sync.Mutex
	calls []Call
	now   func() time.Time
}

// NewRecorder wraps underlying (http.DefaultTransport if nil) with a
// recording transport using masker to scrub captured secrets.
func NewRecorder(underlying http.RoundTripper, masker *Masker) *Recorder {
	if underlying == nil {
		underlying = http.DefaultTransport
	}
	return &Recorder{underlying: underlying, masker: masker, now: time.Now}
}

// Transport returns the http.RoundTripper to install on the process's HTTP
// client for the duration of the recording scope.
func (r *Recorder) Transport() http.RoundTripper { return r }

// RoundTrip implements http.RoundTripper.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	captured, err := captureRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := r.underlying.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	capturedResp, bodyCopy, err := captureResponse(resp)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(bodyCopy))

	call := Call{Request: captured, Response: capturedResp, Timestamp: r.now()}
	if r.masker != nil {
		call = r.masker.MaskCall(call)
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	return resp, nil
}

func captureRequest(req *http.Request) (Request, error) {
	headers := make(map[string]string, len(req.Header))
	for k := range req.Header {
		headers[k] = req.Header.Get(k)
	}

	params := make(map[string]string)
	for k, v := range req.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	var bodyPtr *string
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return Request{}, err
		}
		req.Body = io.NopCloser(bytes.NewReader(data))
		if isTextual(data) {
			s := string(data)
			bodyPtr = &s
		}
	}

	return Request{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: headers,
		Params:  params,
		Body:    bodyPtr,
	}, nil
}

func captureResponse(resp *http.Response) (Response, []byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, nil, err
	}
	resp.Body.Close()

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	content := ""
	if isTextual(data) {
		content = string(data)
	}

	return Response{StatusCode: resp.StatusCode, Headers: headers, Content: content}, data, nil
}

func isTextual(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for _, b := range data[:min(len(data), 512)] {
		if b == 0 {
			return false
		}
	}
	return true
}

// Calls returns a copy of the recorded, already-masked call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Save writes {metadata, recordings} to path as a single JSON document,
// creating parent directories as needed (§4.9 saveGoldenData).
func (r *Recorder) Save(path string, metadata Metadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	scenario := Scenario{Metadata: metadata, Recordings: r.Calls()}
	data, err := json.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
