package readers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"os"
	"time"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// HAR 1.2 document, reduced to the fields ingestion uses.
// http://www.softwareishard.com/blog/har-12-spec/
type harLog struct {
	Log struct {
		Version string     `json:"version"`
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harRequest struct {
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	HTTPVersion string         `json:"httpVersion"`
	Headers     []harNameValue `json:"headers"`
	PostData    *harPostData   `json:"postData,omitempty"`
}

type harResponse struct {
	Status      int            `json:"status"`
	StatusText  string         `json:"statusText"`
	HTTPVersion string         `json:"httpVersion"`
	Headers     []harNameValue `json:"headers"`
	Content     harContent     `json:"content"`
}

type harContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type harPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type harNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARReader reads HTTP Archive exports. Each entry yields its request and
// then its response, both stamped with the entry start time.
type HARReader struct{}

// NewHARReader returns a HAR reader.
func NewHARReader() *HARReader {
	return &HARReader{}
}

func (*HARReader) ID() timeline.ReaderID { return "har" }

func (*HARReader) Suffixes() []string { return []string{"har"} }

func (r *HARReader) Read(ctx context.Context, path string) iter.Seq2[timeline.Record, error] {
	return func(yield func(timeline.Record, error) bool) {
		data, err := os.ReadFile(path)
		if err != nil {
			yield(timeline.Record{}, fmt.Errorf("read %s: %w", path, err))
			return
		}
		var doc harLog
		if err := json.Unmarshal(data, &doc); err != nil {
			yield(timeline.Record{}, fmt.Errorf("%w: %s is not a HAR document: %v", sharedErrors.ErrMalformedRecord, path, err))
			return
		}

		index := 0
		for i, entry := range doc.Log.Entries {
			if err := ctx.Err(); err != nil {
				yield(timeline.Record{}, err)
				return
			}
			ts, req, res, err := convertHAREntry(entry)
			if err != nil {
				if !yield(timeline.Record{}, fmt.Errorf("%w: entry %d: %v", sharedErrors.ErrMalformedRecord, i, err)) {
					return
				}
				continue
			}
			res.Answers = &httpmsg.Ref{File: path, Index: index}
			if !yield(timeline.Record{Timestamp: ts, Payload: req}, nil) {
				return
			}
			if !yield(timeline.Record{Timestamp: ts, Payload: res}, nil) {
				return
			}
			index += 2
		}
	}
}

func convertHAREntry(entry harEntry) (time.Time, *httpmsg.Request, *httpmsg.Response, error) {
	ts, err := time.Parse(time.RFC3339Nano, entry.StartedDateTime)
	if err != nil {
		return time.Time{}, nil, nil, fmt.Errorf("startedDateTime: %w", err)
	}
	u, err := url.Parse(entry.Request.URL)
	if err != nil {
		return time.Time{}, nil, nil, fmt.Errorf("request url: %w", err)
	}

	req := &httpmsg.Request{
		Method:   entry.Request.Method,
		URI:      u.EscapedPath(),
		Query:    u.RawQuery,
		Fragment: u.Fragment,
		Version:  entry.Request.HTTPVersion,
		Header:   harHeader(entry.Request.Headers),
	}
	if req.URI == "" {
		req.URI = "/"
	}
	if entry.Request.PostData != nil {
		req.Body = []byte(entry.Request.PostData.Text)
	}

	res := &httpmsg.Response{
		Version: entry.Response.HTTPVersion,
		Status:  entry.Response.Status,
		Reason:  entry.Response.StatusText,
		Header:  harHeader(entry.Response.Headers),
	}
	switch entry.Response.Content.Encoding {
	case "":
		if entry.Response.Content.Text != "" {
			res.Body = []byte(entry.Response.Content.Text)
		}
	case "base64":
		body, err := base64.StdEncoding.DecodeString(entry.Response.Content.Text)
		if err != nil {
			return time.Time{}, nil, nil, fmt.Errorf("response content: %w", err)
		}
		res.Body = body
	default:
		return time.Time{}, nil, nil, fmt.Errorf("response content: unknown encoding %q", entry.Response.Content.Encoding)
	}
	return ts.UTC(), req, res, nil
}

func harHeader(values []harNameValue) httpmsg.Header {
	h := make(httpmsg.Header, 0, len(values))
	for _, nv := range values {
		h.Add(nv.Name, nv.Value)
	}
	return h
}
