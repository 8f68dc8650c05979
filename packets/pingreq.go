package packets

import "bytes"

// PingReqFrame is sent by the client to keep the connection alive and to
// verify the broker is still responding.
type PingReqFrame struct {
	FixedHeader
}

func (f *PingReqFrame) Header() *FixedHeader { f.Type = Pingreq; return &f.FixedHeader }
func (f *PingReqFrame) encodeBody(*bytes.Buffer) error { return nil }
func (f *PingReqFrame) decodeBody([]byte) error        { return nil }
