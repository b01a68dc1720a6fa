// Package codec maps timeline events and analysis runs to the data transfer
// objects shared by every persistence backend.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	"github.com/khanhnv2901/seca-traffic/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// PayloadDTO is a payload tagged with its kind. Exactly one of the pointer
// fields is set.
type PayloadDTO struct {
	Kind      string             `json:"kind"`
	Request   *httpmsg.Request   `json:"request,omitempty"`
	Response  *httpmsg.Response  `json:"response,omitempty"`
	RawPacket *httpmsg.RawPacket `json:"raw_packet,omitempty"`
	Exchange  *httpmsg.Exchange  `json:"exchange,omitempty"`
}

type EventDTO struct {
	Timestamp     string     `json:"timestamp"`
	Reader        string     `json:"reader"`
	SourceFile    string     `json:"source_file"`
	SequenceIndex int        `json:"sequence_index"`
	Payload       PayloadDTO `json:"payload"`
}

type OutcomeDTO struct {
	Value   json.RawMessage   `json:"value,omitempty"`
	Failure *analysis.Failure `json:"failure,omitempty"`
}

type ResultDTO struct {
	Timestamp string      `json:"timestamp"`
	Ref       httpmsg.Ref `json:"ref"`
	Payload   PayloadDTO  `json:"payload"`
	Outcome   OutcomeDTO  `json:"outcome"`
}

type RunDTO struct {
	ID          string           `json:"id"`
	Analyzer    string           `json:"analyzer"`
	Description string           `json:"description"`
	StartedAt   string           `json:"started_at"`
	CompletedAt string           `json:"completed_at,omitempty"`
	Finished    bool             `json:"finished"`
	Summary     analysis.Summary `json:"summary"`
	Results     []ResultDTO      `json:"results"`
}

// CheckVersion accepts files written with the same major format version.
func CheckVersion(version string) error {
	current := semver.MustParse(constants.DataFormatVersion)
	got, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: format version %q: %v", sharedErrors.ErrIncompatibleFormat, version, err)
	}
	if got.Major() != current.Major() {
		return fmt.Errorf("%w: file has format %s, this build reads %d.x", sharedErrors.ErrIncompatibleFormat, got, current.Major())
	}
	return nil
}

func EncodePayload(p httpmsg.Payload) (PayloadDTO, error) {
	dto := PayloadDTO{}
	switch v := p.(type) {
	case *httpmsg.Request:
		dto.Request = v
	case *httpmsg.Response:
		dto.Response = v
	case *httpmsg.RawPacket:
		dto.RawPacket = v
	case *httpmsg.Exchange:
		dto.Exchange = v
	default:
		return dto, fmt.Errorf("%w: unsupported payload %T", sharedErrors.ErrSerializationFailed, p)
	}
	dto.Kind = p.Kind().String()
	return dto, nil
}

func DecodePayload(dto PayloadDTO) (httpmsg.Payload, error) {
	kind, err := httpmsg.ParseKind(dto.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrCorruptData, err)
	}
	var p httpmsg.Payload
	switch kind {
	case httpmsg.KindRequest:
		if dto.Request != nil {
			p = dto.Request
		}
	case httpmsg.KindResponse:
		if dto.Response != nil {
			p = dto.Response
		}
	case httpmsg.KindRawPacket:
		if dto.RawPacket != nil {
			p = dto.RawPacket
		}
	case httpmsg.KindExchange:
		if dto.Exchange != nil && dto.Exchange.Response != nil {
			p = dto.Exchange
		}
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s payload has no body", sharedErrors.ErrCorruptData, kind)
	}
	return p, nil
}

func EncodeEvent(e timeline.Event) (EventDTO, error) {
	payload, err := EncodePayload(e.Payload)
	if err != nil {
		return EventDTO{}, err
	}
	return EventDTO{
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339Nano),
		Reader:        string(e.Reader),
		SourceFile:    e.SourceFile,
		SequenceIndex: e.SequenceIndex,
		Payload:       payload,
	}, nil
}

func DecodeEvent(dto EventDTO) (timeline.Event, error) {
	ts, err := time.Parse(time.RFC3339Nano, dto.Timestamp)
	if err != nil {
		return timeline.Event{}, fmt.Errorf("%w: event timestamp: %v", sharedErrors.ErrCorruptData, err)
	}
	payload, err := DecodePayload(dto.Payload)
	if err != nil {
		return timeline.Event{}, err
	}
	return timeline.Event{
		Timestamp:     ts,
		Reader:        timeline.ReaderID(dto.Reader),
		SourceFile:    dto.SourceFile,
		SequenceIndex: dto.SequenceIndex,
		Payload:       payload,
	}, nil
}

func EncodeEvents(events []timeline.Event) ([]EventDTO, error) {
	out := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dto, err := EncodeEvent(e)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

func DecodeEvents(dtos []EventDTO) ([]timeline.Event, error) {
	out := make([]timeline.Event, 0, len(dtos))
	for i, dto := range dtos {
		e, err := DecodeEvent(dto)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// EncodeRun serializes a run. Success values are stored as plain JSON and
// come back from DecodeRun as generic JSON values.
func EncodeRun(run *analysis.Run) (RunDTO, error) {
	dto := RunDTO{
		ID:          run.ID,
		Analyzer:    run.Analyzer,
		Description: run.Description,
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339Nano),
		Finished:    run.Finished,
		Summary:     run.Summary,
		Results:     make([]ResultDTO, 0, len(run.Results)),
	}
	if !run.CompletedAt.IsZero() {
		dto.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	for _, res := range run.Results {
		payload, err := EncodePayload(res.Payload)
		if err != nil {
			return RunDTO{}, err
		}
		outcome := OutcomeDTO{Failure: res.Outcome.Failure}
		if res.Outcome.Value != nil {
			if outcome.Value, err = json.Marshal(res.Outcome.Value); err != nil {
				return RunDTO{}, fmt.Errorf("%w: outcome of %s: %v", sharedErrors.ErrSerializationFailed, res.Ref, err)
			}
		}
		dto.Results = append(dto.Results, ResultDTO{
			Timestamp: res.Timestamp.UTC().Format(time.RFC3339Nano),
			Ref:       res.Ref,
			Payload:   payload,
			Outcome:   outcome,
		})
	}
	return dto, nil
}

func DecodeRun(dto RunDTO) (*analysis.Run, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, dto.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: started_at: %v", sharedErrors.ErrCorruptData, err)
	}
	var completedAt time.Time
	if dto.CompletedAt != "" {
		if completedAt, err = time.Parse(time.RFC3339Nano, dto.CompletedAt); err != nil {
			return nil, fmt.Errorf("%w: completed_at: %v", sharedErrors.ErrCorruptData, err)
		}
	}

	run := &analysis.Run{
		ID:          dto.ID,
		Analyzer:    dto.Analyzer,
		Description: dto.Description,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Finished:    dto.Finished,
		Results:     make([]analysis.Result, 0, len(dto.Results)),
	}
	for i, rd := range dto.Results {
		ts, err := time.Parse(time.RFC3339Nano, rd.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: result %d timestamp: %v", sharedErrors.ErrCorruptData, i, err)
		}
		payload, err := DecodePayload(rd.Payload)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		outcome := analysis.Outcome{Failure: rd.Outcome.Failure}
		if len(rd.Outcome.Value) > 0 {
			if err := json.Unmarshal(rd.Outcome.Value, &outcome.Value); err != nil {
				return nil, fmt.Errorf("%w: result %d outcome: %v", sharedErrors.ErrDeserializationFailed, i, err)
			}
		}
		run.Append(analysis.Result{Timestamp: ts, Ref: rd.Ref, Payload: payload, Outcome: outcome})
	}
	// the summary is derived, never trusted from disk
	run.Summary = analysis.Summarize(run.Results)
	return run, nil
}
