package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

func TestCheckVersion(t *testing.T) {
	require.NoError(t, CheckVersion("1.0.0"))
	require.NoError(t, CheckVersion("1.4.2"))
	require.ErrorIs(t, CheckVersion("2.0.0"), sharedErrors.ErrIncompatibleFormat)
	require.ErrorIs(t, CheckVersion(""), sharedErrors.ErrIncompatibleFormat)
	require.ErrorIs(t, CheckVersion("banana"), sharedErrors.ErrIncompatibleFormat)
}

func TestPayloadRoundTrip(t *testing.T) {
	payloads := []httpmsg.Payload{
		&httpmsg.Request{Method: "GET", URI: "/", Version: "HTTP/1.1", Header: httpmsg.Header{{Name: "Host", Value: "a"}}},
		&httpmsg.Response{Version: "HTTP/1.1", Status: 200, Reason: "OK", Answers: &httpmsg.Ref{File: "a.har", Index: 0}},
		&httpmsg.RawPacket{Src: "10.0.0.1:1234", Dst: "10.0.0.2:80", Data: []byte("GET / HTTP/1.1\r\n\r\n")},
		&httpmsg.Exchange{Response: &httpmsg.Response{Status: 404}},
	}
	for _, p := range payloads {
		dto, err := EncodePayload(p)
		require.NoError(t, err)
		assert.Equal(t, p.Kind().String(), dto.Kind)

		data, err := json.Marshal(dto)
		require.NoError(t, err)
		var decoded PayloadDTO
		require.NoError(t, json.Unmarshal(data, &decoded))

		back, err := DecodePayload(decoded)
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
}

func TestDecodePayloadRejectsEmptyBody(t *testing.T) {
	_, err := DecodePayload(PayloadDTO{Kind: "request"})
	require.ErrorIs(t, err, sharedErrors.ErrCorruptData)

	_, err = DecodePayload(PayloadDTO{Kind: "datagram"})
	require.ErrorIs(t, err, sharedErrors.ErrCorruptData)
}

func TestEventRoundTripKeepsNanoseconds(t *testing.T) {
	e := timeline.Event{
		Timestamp:     time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC),
		Reader:        "har",
		SourceFile:    "a.har",
		SequenceIndex: 7,
		Payload:       &httpmsg.Request{Method: "POST", URI: "/x"},
	}
	dto, err := EncodeEvent(e)
	require.NoError(t, err)
	back, err := DecodeEvent(dto)
	require.NoError(t, err)
	assert.True(t, e.Timestamp.Equal(back.Timestamp))
	assert.Equal(t, e.Payload, back.Payload)
	assert.Equal(t, e.Ref(), back.Ref())

	dto.Timestamp = "yesterday"
	_, err = DecodeEvent(dto)
	require.ErrorIs(t, err, sharedErrors.ErrCorruptData)
}

func TestRunRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	run := &analysis.Run{
		ID:          "run-1",
		Analyzer:    "cookie-secure",
		Description: "Cookies set the Secure flag",
		StartedAt:   start,
	}
	run.Append(analysis.Result{
		Timestamp: start,
		Ref:       httpmsg.Ref{File: "a.har", Index: 1},
		Payload:   &httpmsg.Response{Status: 200},
		Outcome:   analysis.Pass("ok"),
	})
	run.Append(analysis.Result{
		Timestamp: start.Add(time.Second),
		Ref:       httpmsg.Ref{File: "a.har", Index: 3},
		Payload:   &httpmsg.Response{Status: 200},
		Outcome:   analysis.Fail(analysis.MissingCookieFlag, "Secure missing on id"),
	})
	run.Complete(start.Add(2*time.Second), false)

	dto, err := EncodeRun(run)
	require.NoError(t, err)
	back, err := DecodeRun(dto)
	require.NoError(t, err)

	assert.Equal(t, run.ID, back.ID)
	assert.Equal(t, run.Summary, back.Summary)
	assert.True(t, run.CompletedAt.Equal(back.CompletedAt))
	require.Len(t, back.Results, 2)
	assert.Equal(t, "ok", back.Results[0].Outcome.Value)
	assert.Equal(t, run.Results[1].Outcome.Failure, back.Results[1].Outcome.Failure)
	assert.Equal(t, run.Results[1].Ref, back.Results[1].Ref)
}

func TestDecodeRunRecomputesSummary(t *testing.T) {
	dto := RunDTO{
		ID:        "x",
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Summary:   analysis.Summary{Passed: 99},
		Results: []ResultDTO{{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Payload:   PayloadDTO{Kind: "request", Request: &httpmsg.Request{Method: "GET"}},
			Outcome:   OutcomeDTO{Failure: &analysis.Failure{Kind: analysis.MissingAuthHeader}},
		}},
	}
	run, err := DecodeRun(dto)
	require.NoError(t, err)
	assert.Equal(t, analysis.Summary{Passed: 0, Failed: 1, Matched: 1}, run.Summary)
}
