package packets

import "bytes"

// DisconnectFrame is sent by the client to close the connection cleanly.
type DisconnectFrame struct {
	FixedHeader
}

func (f *DisconnectFrame) Header() *FixedHeader { f.Type = Disconnect; return &f.FixedHeader }
func (f *DisconnectFrame) encodeBody(*bytes.Buffer) error { return nil }
func (f *DisconnectFrame) decodeBody([]byte) error        { return nil }
