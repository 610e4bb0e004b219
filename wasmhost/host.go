package wasmhost

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/ownership"
)

// HostModule is the import namespace guests bind against.
const HostModule = "bindkit_host"

// Host runs WebAssembly guests against one adapter. Each live guest
// module has its own handle session, keyed by module name, so host
// functions can look their caller's session up.
type Host struct {
	runtime    wazero.Runtime
	adapter    *call.Adapter
	logger     *zap.Logger
	sessions   map[string]*session
	sessionsMu sync.Mutex
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger used for guest log messages and dispatch
// failures.
func WithLogger(l *zap.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates a wazero runtime with WASI and the bindkit host
// module instantiated.
func NewHost(ctx context.Context, adapter *call.Adapter, opts ...HostOption) (*Host, error) {
	h := &Host{
		adapter:  adapter,
		logger:   zap.NewNop(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	h.runtime = rt

	if err := h.registerHostFunctions(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return h, nil
}

// Close releases the runtime and everything instantiated in it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// Instance is one instantiated guest with its own handle session.
type Instance struct {
	module api.Module
	sess   *session
}

// dispatcher pairs the adapter with one caller's session for the
// duration of a host call.
type dispatcher struct {
	adapter *call.Adapter
	sess    *session
}

// Load instantiates a guest. The guest must export "allocate" to
// receive payloads.
func (h *Host) Load(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	mod, err := h.runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Cause(err).
			Detail("instantiate guest module").
			Build()
	}
	inst := &Instance{module: mod, sess: newSession()}
	h.sessionsMu.Lock()
	h.sessions[mod.Name()] = inst.sess
	h.sessionsMu.Unlock()
	return inst, nil
}

// Release drops the instance's session, releasing every handle the
// guest still holds, and closes the module.
func (h *Host) Release(ctx context.Context, inst *Instance) error {
	h.sessionsMu.Lock()
	delete(h.sessions, inst.module.Name())
	h.sessionsMu.Unlock()
	inst.sess.close()
	return inst.module.Close(ctx)
}

func (h *Host) sessionFor(m api.Module) *session {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	return h.sessions[m.Name()]
}

// registerHostFunctions instantiates the bindkit_host import module.
// Payloads arrive as a packed u64: pointer in the high 32 bits, length
// in the low 32. Responses go back the same way through the guest's
// "allocate" export.
func (h *Host) registerHostFunctions(ctx context.Context) error {
	builder := h.runtime.NewHostModuleBuilder(HostModule)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) uint64 {
			return h.reply(ctx, m, h.handle(m, packed, h.dispatchInvoke))
		}).
		Export("invoke")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) uint64 {
			return h.reply(ctx, m, h.handle(m, packed, h.dispatchConstruct))
		}).
		Export("construct")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) uint64 {
			return h.reply(ctx, m, h.handle(m, packed, h.dispatchRelease))
		}).
		Export("release")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) {
			ptr := uint32(packed >> 32)
			length := uint32(packed)
			payload, ok := m.Memory().Read(ptr, length)
			if !ok {
				return
			}
			var msg struct {
				Level   string `json:"level"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload, &msg); err == nil {
				h.logger.Info("guest log",
					zap.String("level", msg.Level),
					zap.String("msg", msg.Message))
			} else {
				h.logger.Info("guest log (raw)", zap.ByteString("payload", payload))
			}
		}).
		Export("log_message")

	_, err := builder.Instantiate(ctx)
	return err
}

// handle reads the request payload out of guest memory and runs the
// dispatch function against the caller's session.
func (h *Host) handle(m api.Module, packed uint64, fn func(*dispatcher, []byte) response) []byte {
	ptr := uint32(packed >> 32)
	length := uint32(packed)
	payload, ok := m.Memory().Read(ptr, length)
	if !ok {
		return marshalResponse(errResponse(errors.InvalidInput(errors.PhaseHost, "request outside guest memory")))
	}
	sess := h.sessionFor(m)
	if sess == nil {
		return marshalResponse(errResponse(errors.InvalidInput(errors.PhaseHost, "no session for calling module")))
	}
	d := &dispatcher{adapter: h.adapter, sess: sess}
	return marshalResponse(fn(d, payload))
}

// reply writes a response payload into guest memory via its allocate
// export and returns the packed pointer.
func (h *Host) reply(ctx context.Context, m api.Module, resp []byte) uint64 {
	allocate := m.ExportedFunction("allocate")
	if allocate == nil {
		h.logger.Error("guest does not export allocate")
		return 0
	}
	results, err := allocate.Call(ctx, uint64(len(resp)))
	if err != nil || len(results) == 0 {
		h.logger.Error("guest allocate failed", zap.Error(err))
		return 0
	}
	ptr := uint32(results[0])
	if !m.Memory().Write(ptr, resp) {
		h.logger.Error("response write outside guest memory")
		return 0
	}
	return (uint64(ptr) << 32) | uint64(len(resp))
}

// dispatchInvoke decodes an invoke request, runs it through the
// adapter, and encodes the result.
func (h *Host) dispatchInvoke(d *dispatcher, payload []byte) response {
	var req invokeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errResponse(errors.InvalidInput(errors.PhaseHost, "decode invoke request: "+err.Error()))
	}
	args, err := d.decodeArgs(req.Args)
	if err != nil {
		return errResponse(err)
	}
	out, err := d.adapter.Invoke(req.Func, args...)
	if err != nil {
		return errResponse(err)
	}
	return d.encodeResult(out)
}

// dispatchConstruct decodes a construct request and wraps the new
// object behind a session handle.
func (h *Host) dispatchConstruct(d *dispatcher, payload []byte) response {
	var req constructRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errResponse(errors.InvalidInput(errors.PhaseHost, "decode construct request: "+err.Error()))
	}
	args, err := d.decodeArgs(req.Args)
	if err != nil {
		return errResponse(err)
	}
	out, err := d.adapter.Construct(req.Type, args...)
	if err != nil {
		return errResponse(err)
	}
	return d.encodeResult(out)
}

// dispatchRelease drops one guest handle.
func (h *Host) dispatchRelease(d *dispatcher, payload []byte) response {
	var req releaseRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errResponse(errors.InvalidInput(errors.PhaseHost, "decode release request: "+err.Error()))
	}
	if err := d.sess.drop(req.Handle); err != nil {
		return errResponse(err)
	}
	return okResponse(nil)
}

func (d *dispatcher) decodeArgs(in []Value) ([]any, error) {
	args := make([]any, len(in))
	for i, v := range in {
		a, err := d.sess.decodeValue(v)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	return args, nil
}

func (d *dispatcher) encodeResult(out any) response {
	v, err := d.sess.encodeValue(out, d.typeNameOf(out))
	if err != nil {
		return errResponse(err)
	}
	return okResponse(v)
}

// typeNameOf resolves the exposed type name of a handle result for the
// guest-side envelope.
func (d *dispatcher) typeNameOf(out any) string {
	var handle ownership.Handle
	switch r := out.(type) {
	case ownership.Ref:
		handle = r.Handle()
	case ownership.Shared:
		handle = r.Handle()
	default:
		return ""
	}
	id, ok := d.adapter.Arena().TypeID(handle)
	if !ok {
		return ""
	}
	t, ok := d.adapter.Registry().ResolveID(id)
	if !ok {
		return fmt.Sprintf("id %d", id)
	}
	return t.Name
}
