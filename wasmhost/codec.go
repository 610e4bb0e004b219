package wasmhost

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/ownership"
)

// Value is the JSON envelope for one boundary-crossing value.
type Value struct {
	Kind   string  `json:"kind"`
	Bool   bool    `json:"bool,omitempty"`
	Int    int64   `json:"int,omitempty"`
	Float  float64 `json:"float,omitempty"`
	Str    string  `json:"str,omitempty"`
	Handle uint32  `json:"handle,omitempty"`
	Type   string  `json:"type,omitempty"`
}

// Envelope kinds.
const (
	KindNull   = "null"
	KindBool   = "bool"
	KindInt    = "int64"
	KindFloat  = "float64"
	KindString = "string"
	KindHandle = "handle"
)

// invokeRequest is the payload of the host "invoke" export.
type invokeRequest struct {
	Func string  `json:"func"`
	Args []Value `json:"args"`
}

// constructRequest is the payload of the host "construct" export.
type constructRequest struct {
	Type string  `json:"type"`
	Args []Value `json:"args"`
}

// releaseRequest is the payload of the host "release" export.
type releaseRequest struct {
	Handle uint32 `json:"handle"`
}

// response is the payload returned by every host export.
type response struct {
	OK     bool       `json:"ok"`
	Result *Value     `json:"result,omitempty"`
	Error  *wireError `json:"error,omitempty"`
}

// wireError carries the structured error fields across the boundary.
type wireError struct {
	Phase  string `json:"phase"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

func errResponse(err error) response {
	if e, ok := err.(*errors.Error); ok {
		return response{Error: &wireError{
			Phase:  string(e.Phase),
			Kind:   string(e.Kind),
			Detail: e.Error(),
			Source: e.Source,
			Target: e.Target,
		}}
	}
	return response{Error: &wireError{
		Phase:  string(errors.PhaseHost),
		Kind:   string(errors.KindInvalidInput),
		Detail: err.Error(),
	}}
}

func okResponse(v *Value) response {
	return response{OK: true, Result: v}
}

func marshalResponse(r response) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		// The response type only holds marshalable fields.
		return []byte(`{"ok":false,"error":{"phase":"host","kind":"invalid_input"}}`)
	}
	return data
}

// session maps numeric guest-visible handles onto host-side ownership
// handles. One session per guest instance.
type session struct {
	mu      sync.Mutex
	handles map[uint32]any
	names   map[uint32]string
	next    uint32
}

func newSession() *session {
	return &session{
		handles: make(map[uint32]any),
		names:   make(map[uint32]string),
		next:    1,
	}
}

// put stores a host handle and returns its guest-visible id.
func (s *session) put(h any, typeName string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.handles[id] = h
	s.names[id] = typeName
	return id
}

// get resolves a guest-visible id back to the host handle.
func (s *session) get(id uint32) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	if !ok {
		return nil, errors.DeadHandle(errors.PhaseHost, fmt.Sprintf("unknown guest handle %d", id))
	}
	return h, nil
}

// drop removes a handle from the session and releases it.
func (s *session) drop(id uint32) error {
	s.mu.Lock()
	h, ok := s.handles[id]
	delete(s.handles, id)
	delete(s.names, id)
	s.mu.Unlock()
	if !ok {
		return errors.DeadHandle(errors.PhaseHost, fmt.Sprintf("unknown guest handle %d", id))
	}
	return releaseHandle(h)
}

// close releases every handle the session still holds.
func (s *session) close() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[uint32]any)
	s.names = make(map[uint32]string)
	s.mu.Unlock()
	for _, h := range handles {
		_ = releaseHandle(h)
	}
}

// len reports how many handles the session holds.
func (s *session) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func releaseHandle(h any) error {
	switch v := h.(type) {
	case ownership.Ref:
		return v.Release()
	case ownership.Shared:
		return v.Release()
	}
	return nil
}

// decodeValue turns an envelope into the host-side value passed to the
// adapter.
func (s *session) decodeValue(v Value) (any, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return v.Float, nil
	case KindString:
		return v.Str, nil
	case KindHandle:
		return s.get(v.Handle)
	}
	return nil, errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("unknown envelope kind %q", v.Kind))
}

// encodeValue turns an adapter result into an envelope. Objects stay
// on the host side behind a fresh session handle.
func (s *session) encodeValue(v any, typeName string) (*Value, error) {
	switch r := v.(type) {
	case nil:
		return &Value{Kind: KindNull}, nil
	case bool:
		return &Value{Kind: KindBool, Bool: r}, nil
	case int64:
		return &Value{Kind: KindInt, Int: r}, nil
	case float64:
		return &Value{Kind: KindFloat, Float: r}, nil
	case string:
		return &Value{Kind: KindString, Str: r}, nil
	case ownership.Ref, ownership.Shared:
		return &Value{Kind: KindHandle, Handle: s.put(r, typeName), Type: typeName}, nil
	}
	return nil, errors.InvalidInput(errors.PhaseHost,
		fmt.Sprintf("result type %T cannot cross the guest boundary", v))
}
