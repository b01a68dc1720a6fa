package readers

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

type packetSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// PCAPReader reads classic pcap and pcapng captures. Every TCP segment with
// a payload becomes a raw packet event stamped with its capture time; the
// packets are parsed as HTTP only when an analyzer asks for requests or
// responses. There is no TCP reassembly, so messages split over several
// segments only expose their first segment.
type PCAPReader struct{}

// NewPCAPReader returns a capture reader.
func NewPCAPReader() *PCAPReader {
	return &PCAPReader{}
}

func (*PCAPReader) ID() timeline.ReaderID { return "pcap" }

func (*PCAPReader) Suffixes() []string { return []string{"pcap", "pcapng"} }

func (r *PCAPReader) Read(ctx context.Context, path string) iter.Seq2[timeline.Record, error] {
	return func(yield func(timeline.Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(timeline.Record{}, fmt.Errorf("open %s: %w", path, err))
			return
		}
		defer f.Close()

		src, err := openPacketSource(f, path)
		if err != nil {
			yield(timeline.Record{}, fmt.Errorf("%w: %s: %v", sharedErrors.ErrMalformedRecord, path, err))
			return
		}

		// last request index seen per "src>dst" flow, used to link responses
		lastRequest := make(map[string]int)
		index := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(timeline.Record{}, err)
				return
			}
			data, ci, err := src.ReadPacketData()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(timeline.Record{}, fmt.Errorf("%w: %s: packet after %d: %v", sharedErrors.ErrMalformedRecord, path, index, err))
				return
			}

			raw, ok := tcpPayload(gopacket.NewPacket(data, src.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true}))
			if !ok {
				continue
			}
			switch {
			case looksLikeRequest(raw.Data):
				lastRequest[raw.Src+">"+raw.Dst] = index
			case looksLikeResponse(raw.Data):
				if reqIndex, found := lastRequest[raw.Dst+">"+raw.Src]; found {
					raw.Answers = &httpmsg.Ref{File: path, Index: reqIndex}
				}
			}
			if !yield(timeline.Record{Timestamp: ci.Timestamp.UTC(), Payload: raw}, nil) {
				return
			}
			index++
		}
	}
}

func openPacketSource(f *os.File, path string) (packetSource, error) {
	if strings.EqualFold(filepath.Ext(path), ".pcapng") {
		return pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(f)
}

// tcpPayload extracts the TCP payload and endpoints of a decoded packet.
func tcpPayload(packet gopacket.Packet) (*httpmsg.RawPacket, bool) {
	netLayer := packet.NetworkLayer()
	tcpLayer, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if netLayer == nil || !ok || len(tcpLayer.Payload) == 0 {
		return nil, false
	}
	flow := netLayer.NetworkFlow()
	data := make([]byte, len(tcpLayer.Payload))
	copy(data, tcpLayer.Payload)
	return &httpmsg.RawPacket{
		Src:  net.JoinHostPort(flow.Src().String(), strconv.Itoa(int(tcpLayer.SrcPort))),
		Dst:  net.JoinHostPort(flow.Dst().String(), strconv.Itoa(int(tcpLayer.DstPort))),
		Data: data,
	}, true
}

// CanConvert reports that raw packets can become requests or responses.
func (*PCAPReader) CanConvert(from, to httpmsg.Kind) bool {
	return from == httpmsg.KindRawPacket && (to == httpmsg.KindRequest || to == httpmsg.KindResponse)
}

// Convert parses a raw packet as an HTTP/1.x request or response. Segments
// without the matching start line fail with ErrConversionSkipped.
func (*PCAPReader) Convert(p httpmsg.Payload, to httpmsg.Kind) (httpmsg.Payload, error) {
	raw, ok := p.(*httpmsg.RawPacket)
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", sharedErrors.ErrConversionUnknown, p.Kind(), to)
	}
	switch to {
	case httpmsg.KindRequest:
		if !looksLikeRequest(raw.Data) {
			return nil, fmt.Errorf("%w: %w: no request line", sharedErrors.ErrConversion, sharedErrors.ErrConversionSkipped)
		}
		req, err := parseHTTPRequest(raw.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrConversion, err)
		}
		return req, nil
	case httpmsg.KindResponse:
		if !looksLikeResponse(raw.Data) {
			return nil, fmt.Errorf("%w: %w: no status line", sharedErrors.ErrConversion, sharedErrors.ErrConversionSkipped)
		}
		res, err := parseHTTPResponse(raw.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrConversion, err)
		}
		res.Answers = raw.Answers
		return res, nil
	}
	return nil, fmt.Errorf("%w: %s to %s", sharedErrors.ErrConversionUnknown, p.Kind(), to)
}

var (
	_ timeline.Reader    = (*PCAPReader)(nil)
	_ timeline.Converter = (*PCAPReader)(nil)
	_ timeline.Reader    = (*HARReader)(nil)
)
