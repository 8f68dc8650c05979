package packets

import "bytes"

// PingRespFrame is the broker's reply to a PingReqFrame.
type PingRespFrame struct {
	FixedHeader
}

func (f *PingRespFrame) Header() *FixedHeader { f.Type = Pingresp; return &f.FixedHeader }
func (f *PingRespFrame) encodeBody(*bytes.Buffer) error { return nil }
func (f *PingRespFrame) decodeBody([]byte) error        { return nil }
