package scintsim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var end = binary.LittleEndian

// Sizes of the fixed parts of a photon block.
const (
	photonBlockHeaderSize = 4 + 4
	photonRecordSize      = 4 * 8
)

type photonBlockHeader struct {
	EventIndex  int32
	PhotonCount uint32
}

type photonRecord struct {
	X          float64
	Y          float64
	Time       float64
	Wavelength float64
}

// PhotonBlock is one event of the binary photon stream.
type PhotonBlock struct {
	EventIndex int32
	Photons    PhotonList
}

func openAppend(filename string) (*os.File, error) {
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	return f, nil
}

// PhotonStreamWriter appends event blocks to a binary photon stream. A block
// is encoded in memory and written with a single call, so the file never
// holds half an event unless the write itself fails.
type PhotonStreamWriter struct {
	w      io.Writer
	closer io.Closer
	buf    []byte
	blocks int
}

func NewPhotonStreamWriter(w io.Writer) *PhotonStreamWriter {
	return &PhotonStreamWriter{w: w}
}

// OpenPhotonStream opens filename in append mode, creating it if needed.
func OpenPhotonStream(filename string) (*PhotonStreamWriter, error) {
	f, err := openAppend(filename)
	if err != nil {
		return nil, err
	}
	return &PhotonStreamWriter{w: f, closer: f}, nil
}

// EncodePhotonBlock appends the wire form of one event to dst.
func EncodePhotonBlock(dst []byte, eventIndex int32, photons PhotonList) []byte {
	dst = end.AppendUint32(dst, uint32(eventIndex))
	dst = end.AppendUint32(dst, uint32(len(photons)))
	for _, p := range photons {
		dst = end.AppendUint64(dst, math.Float64bits(p.X))
		dst = end.AppendUint64(dst, math.Float64bits(p.Y))
		dst = end.AppendUint64(dst, math.Float64bits(p.Time))
		dst = end.AppendUint64(dst, math.Float64bits(p.Wavelength))
	}
	return dst
}

func (s *PhotonStreamWriter) WriteEvent(eventIndex int32, photons PhotonList) error {
	size := photonBlockHeaderSize + len(photons)*photonRecordSize
	if cap(s.buf) < size {
		s.buf = make([]byte, 0, size)
	}
	s.buf = EncodePhotonBlock(s.buf[:0], eventIndex, photons)
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("writing photon block for event %d: %w", eventIndex, err)
	}
	s.blocks++
	return nil
}

// Blocks is the number of events written so far.
func (s *PhotonStreamWriter) Blocks() int { return s.blocks }

func (s *PhotonStreamWriter) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// PhotonStreamReader reads back the blocks of a binary photon stream.
type PhotonStreamReader struct {
	r io.Reader
}

func NewPhotonStreamReader(r io.Reader) *PhotonStreamReader {
	return &PhotonStreamReader{r: r}
}

// Next returns the next block. It returns io.EOF at the end of the stream
// and io.ErrUnexpectedEOF when the stream ends inside a block.
func (s *PhotonStreamReader) Next() (PhotonBlock, error) {
	var header photonBlockHeader
	if err := binary.Read(s.r, end, &header); err != nil {
		return PhotonBlock{}, err
	}
	records, err := readChunked[photonRecord](s.r, header.PhotonCount)
	if err != nil {
		return PhotonBlock{}, fmt.Errorf("reading %d photons of event %d: %w",
			header.PhotonCount, header.EventIndex, err)
	}
	block := PhotonBlock{
		EventIndex: header.EventIndex,
		Photons:    make(PhotonList, len(records)),
	}
	for i, r := range records {
		block.Photons[i] = Photon(r)
	}
	return block, nil
}

// GossipBlock is one event of the response-engine output stream.
type GossipBlock struct {
	EventIndex int32
	Charge     float64
	Sampling   float64
	Amplitudes []float64
}

type gossipBlockHeader struct {
	EventIndex int32
	Charge     float64
	Sampling   float64
	NSamples   uint32
}

// GossipStreamWriter appends response-engine results, one block per event:
// int32 event index, float64 charge, float64 sampling, uint32 sample count,
// then the float64 amplitudes.
type GossipStreamWriter struct {
	w      io.Writer
	closer io.Closer
	buf    []byte
}

func NewGossipStreamWriter(w io.Writer) *GossipStreamWriter {
	return &GossipStreamWriter{w: w}
}

func OpenGossipStream(filename string) (*GossipStreamWriter, error) {
	f, err := openAppend(filename)
	if err != nil {
		return nil, err
	}
	return &GossipStreamWriter{w: f, closer: f}, nil
}

func (s *GossipStreamWriter) WriteEvent(block GossipBlock) error {
	b := s.buf[:0]
	b = end.AppendUint32(b, uint32(block.EventIndex))
	b = end.AppendUint64(b, math.Float64bits(block.Charge))
	b = end.AppendUint64(b, math.Float64bits(block.Sampling))
	b = end.AppendUint32(b, uint32(len(block.Amplitudes)))
	for _, a := range block.Amplitudes {
		b = end.AppendUint64(b, math.Float64bits(a))
	}
	s.buf = b
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("writing gossip block for event %d: %w", block.EventIndex, err)
	}
	return nil
}

func (s *GossipStreamWriter) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// ReadGossipBlock reads one block written by GossipStreamWriter.
func ReadGossipBlock(r io.Reader) (GossipBlock, error) {
	var header gossipBlockHeader
	if err := binary.Read(r, end, &header); err != nil {
		return GossipBlock{}, err
	}
	amplitudes, err := readChunked[float64](r, header.NSamples)
	if err != nil {
		return GossipBlock{}, fmt.Errorf("reading %d samples of event %d: %w",
			header.NSamples, header.EventIndex, err)
	}
	return GossipBlock{
		EventIndex: header.EventIndex,
		Charge:     header.Charge,
		Sampling:   header.Sampling,
		Amplitudes: amplitudes,
	}, nil
}

// readChunkSize bounds what a block count read from the file can allocate
// before the data behind it has been seen.
const readChunkSize = 4096

// readChunked reads n fixed-size values in bounded chunks. A stream that ends
// before n values gives io.ErrUnexpectedEOF.
func readChunked[T any](r io.Reader, n uint32) ([]T, error) {
	values := make([]T, 0, min(int(n), readChunkSize))
	for remaining := int(n); remaining > 0; {
		chunk := make([]T, min(remaining, readChunkSize))
		if err := binary.Read(r, end, chunk); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		values = append(values, chunk...)
		remaining -= len(chunk)
	}
	return values, nil
}
