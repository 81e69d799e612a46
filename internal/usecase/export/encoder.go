package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/ccdb/internal/domain/complaint"
	"github.com/kailas-cloud/ccdb/internal/domain/search/format"
	"github.com/kailas-cloud/ccdb/internal/domain/search/result"
)

// encoder serializes rows incrementally: Open once, Rows per chunk, Close
// once. Each call returns the bytes produced by that step.
type encoder interface {
	Open() ([]byte, error)
	Rows(hits []result.Hit) ([]byte, error)
	Close() ([]byte, error)
}

func newEncoder(f format.Format, headers []complaint.Header) (encoder, error) {
	switch f {
	case format.CSV:
		return &csvEncoder{headers: headers}, nil
	case format.JSON:
		return &jsonEncoder{headers: headers}, nil
	default:
		return nil, fmt.Errorf("format %q is not an export format", f)
	}
}

type csvEncoder struct {
	headers []complaint.Header
}

func (e *csvEncoder) Open() ([]byte, error) {
	labels := make([]string, len(e.headers))
	for i, h := range e.headers {
		labels[i] = h.Label
	}
	return e.write([][]string{labels})
}

func (e *csvEncoder) Rows(hits []result.Hit) ([]byte, error) {
	records := make([][]string, len(hits))
	for i := range hits {
		records[i] = Row(&hits[i], e.headers)
	}
	return e.write(records)
}

func (e *csvEncoder) Close() ([]byte, error) { return nil, nil }

func (e *csvEncoder) write(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonEncoder writes one top-level array of objects whose keys follow the
// header order.
type jsonEncoder struct {
	headers []complaint.Header
	written int
}

func (e *jsonEncoder) Open() ([]byte, error) { return []byte("["), nil }

func (e *jsonEncoder) Rows(hits []result.Hit) ([]byte, error) {
	var buf bytes.Buffer
	for i := range hits {
		if e.written > 0 {
			buf.WriteByte(',')
		}
		if err := e.writeObject(&buf, Row(&hits[i], e.headers)); err != nil {
			return nil, err
		}
		e.written++
	}
	return buf.Bytes(), nil
}

func (e *jsonEncoder) Close() ([]byte, error) { return []byte("]"), nil }

func (e *jsonEncoder) writeObject(buf *bytes.Buffer, row []string) error {
	buf.WriteByte('{')
	for i, h := range e.headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h.Field)
		if err != nil {
			return fmt.Errorf("encode key %s: %w", h.Field, err)
		}
		val, err := json.Marshal(row[i])
		if err != nil {
			return fmt.Errorf("encode %s: %w", h.Field, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}
