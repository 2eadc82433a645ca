package snapshot

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/zeusync/grove/internal/core/world"
)

const Version = 1

// EntityState is the observable state of one live entity.
type EntityState struct {
	Handle        uint64 `json:"handle"`
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Col           int    `json:"col"`
	Row           int    `json:"row"`
	Frame         int    `json:"frame"`
	Image         string `json:"image,omitempty"`
	Health        int    `json:"health,omitempty"`
	ResourceCount int    `json:"resource_count,omitempty"`
}

// Snapshot is a read-only copy of a world between two advances. Entities
// are ordered by row, then column.
type Snapshot struct {
	Version  int           `json:"version"`
	Time     float64       `json:"time"`
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	Pending  int           `json:"pending"`
	Entities []EntityState `json:"entities"`
}

// Capture copies the state of w at simulation time now.
func Capture(w *world.World, now float64, pending int) Snapshot {
	s := Snapshot{
		Version:  Version,
		Time:     now,
		Rows:     w.Rows(),
		Cols:     w.Cols(),
		Pending:  pending,
		Entities: make([]EntityState, 0, w.Len()),
	}
	for e := range w.Entities() {
		s.Entities = append(s.Entities, EntityState{
			Handle:        uint64(e.Handle()),
			ID:            e.ID,
			Kind:          e.Kind.String(),
			Col:           e.Position.Col,
			Row:           e.Position.Row,
			Frame:         e.ImageIndex,
			Image:         string(e.CurrentImage()),
			Health:        e.Health,
			ResourceCount: e.ResourceCount,
		})
	}
	slices.SortFunc(s.Entities, func(a, b EntityState) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	return s
}

// LogLines renders "<id> <col> <row> <frame>" for every entity with an id.
func (s Snapshot) LogLines() []string {
	out := make([]string, 0, len(s.Entities))
	for _, e := range s.Entities {
		if e.ID == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s %d %d %d", e.ID, e.Col, e.Row, e.Frame))
	}
	return out
}

// Digest hashes the observable state. Arena handles are left out, so two
// worlds that look the same digest the same.
func (s Snapshot) Digest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 128)

	buf = strconv.AppendFloat(buf, s.Time, 'g', -1, 64)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(s.Rows), 10)
	buf = append(buf, 'x')
	buf = strconv.AppendInt(buf, int64(s.Cols), 10)
	buf = append(buf, '\n')
	_, _ = d.Write(buf)

	for _, e := range s.Entities {
		buf = buf[:0]
		buf = append(buf, e.Kind...)
		buf = append(buf, ' ')
		buf = append(buf, e.ID...)
		for _, v := range []int{e.Col, e.Row, e.Frame, e.Health, e.ResourceCount} {
			buf = append(buf, ' ')
			buf = strconv.AppendInt(buf, int64(v), 10)
		}
		buf = append(buf, '\n')
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// DigestHex is Digest as 16 hex digits.
func (s Snapshot) DigestHex() string {
	return fmt.Sprintf("%016x", s.Digest())
}

// Write encodes s as zstd-compressed JSON.
func Write(w io.Writer, s Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(enc)
	if err := json.NewEncoder(bw).Encode(&s); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func Read(r io.Reader) (Snapshot, error) {
	var s Snapshot
	dec, err := zstd.NewReader(r)
	if err != nil {
		return s, err
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&s); err != nil {
		return s, fmt.Errorf("json decode: %w", err)
	}
	if s.Version != Version {
		return s, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	return s, nil
}
