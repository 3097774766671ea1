package handshake

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// exportJob is one handshake export, queued for asynchronous writing.
type exportJob struct {
	line   string
	frames [][]byte // raw radiotap+802.11 bytes backing the exported keys
}

// Sink asynchronously appends hashcat-22000 lines to an output file and,
// when requested, a companion .pcap of the frames that produced the
// export, grounded on the teacher's HandshakeManager.saveQueue /
// saveLoop channel pattern (internal/adapters/sniffer/handshake/handshake_manager.go).
type Sink struct {
	outPath  string
	pcapPath string
	queue    chan exportJob
	stop     chan struct{}
}

// NewSink starts a Sink writing hashcat lines to outPath. If pcapPath is
// non-empty, every export also appends its backing frames to that pcap
// file (DLT_IEEE802_11_RADIO), matching saveSession's
// pcapgo.NewWriter(..., layers.LinkTypeIEEE80211Radio) usage.
func NewSink(outPath, pcapPath string) *Sink {
	s := &Sink{
		outPath:  outPath,
		pcapPath: pcapPath,
		queue:    make(chan exportJob, 100),
		stop:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Close stops the background writer.
func (s *Sink) Close() { close(s.stop) }

// Export enqueues a handshake's export line (and optional raw frames)
// for asynchronous writing. Non-blocking best-effort: a full queue drops
// the export and logs, matching the "transmit-failure is logged, not
// fatal" posture spec.md §7 takes toward the rest of the I/O boundary.
func (s *Sink) Export(hs *FourWayHandshake) {
	line, ok := hs.ToHashcat22000Format()
	if !ok {
		return
	}
	job := exportJob{line: line, frames: hs.backingFrames()}
	select {
	case s.queue <- job:
	default:
		log.Printf("handshake sink: queue full, dropping export for %s", hs.MacAP)
	}
}

func (s *Sink) loop() {
	for {
		select {
		case job := <-s.queue:
			s.write(job)
		case <-s.stop:
			return
		}
	}
}

func (s *Sink) write(job exportJob) {
	f, err := os.OpenFile(s.outPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("handshake sink: open %s: %v", s.outPath, err)
		return
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, job.line); err != nil {
		log.Printf("handshake sink: write %s: %v", s.outPath, err)
	}

	if s.pcapPath == "" || len(job.frames) == 0 {
		return
	}
	s.appendPcap(job.frames)
}

func (s *Sink) appendPcap(frames [][]byte) {
	pf, err := os.OpenFile(s.pcapPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("handshake sink: open pcap %s: %v", s.pcapPath, err)
		return
	}
	defer pf.Close()

	info, err := pf.Stat()
	if err != nil {
		log.Printf("handshake sink: stat pcap %s: %v", s.pcapPath, err)
		return
	}

	w := pcapgo.NewWriter(pf)
	if info.Size() == 0 {
		if err := w.WriteFileHeader(65536, layers.LinkTypeIEEE80211Radio); err != nil {
			log.Printf("handshake sink: pcap header: %v", err)
			return
		}
	}

	now := time.Now()
	for _, frame := range frames {
		ci := gopacket.CaptureInfo{Timestamp: now, CaptureLength: len(frame), Length: len(frame)}
		if err := w.WritePacket(ci, frame); err != nil {
			log.Printf("handshake sink: write packet: %v", err)
			return
		}
	}
}

// backingFrames returns the raw on-wire bytes of every accepted slot, in
// M1..M4 order, used to build the optional companion pcap.
func (h *FourWayHandshake) backingFrames() [][]byte {
	var out [][]byte
	for _, k := range []*EAPOLKeyFrame{h.Msg1, h.Msg2, h.Msg3, h.Msg4} {
		if k != nil && len(k.Raw) > 0 {
			out = append(out, k.Raw)
		}
	}
	return out
}
