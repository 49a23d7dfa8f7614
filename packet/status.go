package packet

import "io"

type StatusRequest struct{}

func (p StatusRequest) ID() int32 {
	return 0x00
}

func (p StatusRequest) Encode(w io.Writer) error {
	return nil
}

func (p *StatusRequest) Decode(r *Reader) error {
	return nil
}

type StatusPing struct {
	ClientTime int64
}

func (p StatusPing) ID() int32 {
	return 0x01
}

func (p StatusPing) Encode(w io.Writer) error {
	return WriteLong(w, p.ClientTime)
}

func (p *StatusPing) Decode(r *Reader) (err error) {
	p.ClientTime, err = ReadLong(r)
	return
}

// StatusResponse carries the server list JSON document.
type StatusResponse struct {
	Status string
}

func (p StatusResponse) ID() int32 {
	return 0x00
}

func (p StatusResponse) Encode(w io.Writer) error {
	return WriteString(w, p.Status)
}

func (p *StatusResponse) Decode(r *Reader) (err error) {
	p.Status, err = ReadString(r, MaxStringChars)
	return
}

type StatusPong struct {
	ClientTime int64
}

func (p StatusPong) ID() int32 {
	return 0x01
}

func (p StatusPong) Encode(w io.Writer) error {
	return WriteLong(w, p.ClientTime)
}

func (p *StatusPong) Decode(r *Reader) (err error) {
	p.ClientTime, err = ReadLong(r)
	return
}
