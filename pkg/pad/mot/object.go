package mot

// Object is a complete MOT object: header metadata plus body bytes
// (spec.md §4.6 "Each MOT object = MOT header ... concatenated with
// body bytes"), grounded on original_source mot/object.py's MotObject.
type Object struct {
	TransportID uint16
	Priority    uint8 // 1..8; the scheduler serves levels from 8 down to 1
	Header      Header
	Body        []byte
}

// Encode returns the object's wire form: encoded header immediately
// followed by the body bytes. Segmentation into MSC data groups is
// pkg/pad/mot's packet.go's responsibility, not the object's.
func (o Object) Encode() []byte {
	out := o.Header.Encode()
	return append(out, o.Body...)
}

// TotalSize is the object's encoded size (header + body), the value
// a directory entry reports for this object.
func (o Object) TotalSize() int {
	return len(o.Header.Encode()) + len(o.Body)
}

// NewObject builds an Object from a content type, subtype, body, and
// the metadata parameters parsed from its YAML sidecar.
func NewObject(transportID uint16, priority uint8, contentType ContentType, contentSubtype uint16, body []byte, params []Parameter) Object {
	return Object{
		TransportID: transportID,
		Priority:    priority,
		Header: Header{
			ContentType:    contentType,
			ContentSubtype: contentSubtype,
			BodySize:       uint32(len(body)),
			Parameters:     params,
		},
		Body: body,
	}
}
