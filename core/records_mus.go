package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrMalformedVectors is returned when an encoded vector block declares a
// shape that does not fit the available bytes.
var ErrMalformedVectors = errors.New("malformed vector block")

// ContentTypeMUS serializes a ContentType as a varint.
var ContentTypeMUS = contentTypeMUS{}

type contentTypeMUS struct{}

func (s contentTypeMUS) Marshal(v ContentType, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (s contentTypeMUS) Unmarshal(bs []byte) (v ContentType, n int, err error) {
	i, n, err := varint.Int.Unmarshal(bs)
	return ContentType(i), n, err
}

func (s contentTypeMUS) Size(v ContentType) (size int) {
	return varint.Int.Size(int(v))
}

func (s contentTypeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

// ManifestMUS serializes a Manifest. BuiltAt is stored as Unix microseconds.
var ManifestMUS = manifestMUS{}

type manifestMUS struct{}

func (s manifestMUS) Marshal(v Manifest, bs []byte) (n int) {
	n = ContentTypeMUS.Marshal(v.Type, bs)
	n += ord.String.Marshal(v.Fingerprint, bs[n:])
	n += varint.Int.Marshal(v.SourceCount, bs[n:])
	n += varint.Int.Marshal(v.EntryCount, bs[n:])
	n += varint.Int.Marshal(v.Dimensions, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += ord.String.Marshal(v.EntryDigest, bs[n:])
	n += ord.String.Marshal(v.VectorDigest, bs[n:])
	n += varint.Int64.Marshal(v.BuiltAt.UnixMicro(), bs[n:])
	return
}

func (s manifestMUS) Unmarshal(bs []byte) (v Manifest, n int, err error) {
	v.Type, n, err = ContentTypeMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SourceCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EntryCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Dimensions, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EntryDigest, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.VectorDigest, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BuiltAt = time.UnixMicro(micros).UTC()
	return
}

func (s manifestMUS) Size(v Manifest) (size int) {
	size = ContentTypeMUS.Size(v.Type)
	size += ord.String.Size(v.Fingerprint)
	size += varint.Int.Size(v.SourceCount)
	size += varint.Int.Size(v.EntryCount)
	size += varint.Int.Size(v.Dimensions)
	size += ord.String.Size(v.Model)
	size += ord.String.Size(v.EntryDigest)
	size += ord.String.Size(v.VectorDigest)
	return size + varint.Int64.Size(v.BuiltAt.UnixMicro())
}

func (s manifestMUS) Skip(bs []byte) (n int, err error) {
	n, err = ContentTypeMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		ord.String.Skip,
		varint.Int.Skip,
		varint.Int.Skip,
		varint.Int.Skip,
		ord.String.Skip,
		ord.String.Skip,
		ord.String.Skip,
		varint.Int64.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// VectorsMUS serializes a rectangular block of float32 vectors as
// count, dimensions, then count*dimensions fixed-width values in row order.
var VectorsMUS = vectorsMUS{}

type vectorsMUS struct{}

func (s vectorsMUS) Marshal(v [][]float32, bs []byte) (n int) {
	dim := 0
	if len(v) > 0 {
		dim = len(v[0])
	}
	n = varint.Int.Marshal(len(v), bs)
	n += varint.Int.Marshal(dim, bs[n:])
	for _, row := range v {
		for _, x := range row {
			n += raw.Float32.Marshal(x, bs[n:])
		}
	}
	return
}

func (s vectorsMUS) Unmarshal(bs []byte) (v [][]float32, n int, err error) {
	count, dim, n, err := s.header(bs)
	if err != nil {
		return
	}
	v = make([][]float32, count)
	var n1 int
	for i := range v {
		row := make([]float32, dim)
		for j := range row {
			row[j], n1, err = raw.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return nil, n, err
			}
		}
		v[i] = row
	}
	return
}

func (s vectorsMUS) Size(v [][]float32) (size int) {
	dim := 0
	if len(v) > 0 {
		dim = len(v[0])
	}
	size = varint.Int.Size(len(v)) + varint.Int.Size(dim)
	return size + len(v)*dim*raw.Float32.Size(0)
}

func (s vectorsMUS) Skip(bs []byte) (n int, err error) {
	count, dim, n, err := s.header(bs)
	if err != nil {
		return
	}
	return n + count*dim*raw.Float32.Size(0), nil
}

// header reads count and dimensions and checks the payload fits in bs.
func (s vectorsMUS) header(bs []byte) (count, dim, n int, err error) {
	count, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	dim, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 || dim < 0 || (count > 0 && dim == 0) {
		return 0, 0, n, ErrMalformedVectors
	}
	if count > 0 && (len(bs)-n)/raw.Float32.Size(0)/count < dim {
		return 0, 0, n, ErrMalformedVectors
	}
	return
}
