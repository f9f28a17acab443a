package core

import (
	"context"
	"sync"
)

// fakeClient answers each operation from a handler and records every
// request it receives.
type fakeClient struct {
	mu       sync.Mutex
	calls    []*Request
	handlers map[Operation]func(n int, req *Request) (*Response, error)
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[Operation]func(int, *Request) (*Response, error))}
}

func (f *fakeClient) on(op Operation, fn func(n int, req *Request) (*Response, error)) *fakeClient {
	f.handlers[op] = fn
	return f
}

func (f *fakeClient) Execute(_ context.Context, _ string, req *Request) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := f.countLocked(req.Operation)
	fn := f.handlers[req.Operation]
	f.mu.Unlock()

	if fn == nil {
		return &Response{Status: StatusSuccessfulOK}, nil
	}
	return fn(n, req)
}

func (f *fakeClient) count(op Operation) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(op)
}

func (f *fakeClient) countLocked(op Operation) int {
	n := 0
	for _, c := range f.calls {
		if c.Operation == op {
			n++
		}
	}
	return n
}

func (f *fakeClient) last(op Operation) *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Operation == op {
			return f.calls[i]
		}
	}
	return nil
}

func printerState(state string) func(int, *Request) (*Response, error) {
	return func(int, *Request) (*Response, error) {
		return &Response{
			Status: StatusSuccessfulOK,
			PrinterAttributes: map[string]any{
				AttrPrinterName:  "PT-P710BT",
				AttrPrinterState: state,
			},
		}, nil
	}
}

func acceptJob(id int) func(int, *Request) (*Response, error) {
	return func(int, *Request) (*Response, error) {
		return &Response{
			Status:        StatusSuccessfulOK,
			JobAttributes: map[string]any{AttrJobID: id, AttrJobState: IPPJobStatePending},
		}, nil
	}
}

// completeOn reports processing until poll number n.
func completeOn(n int) func(int, *Request) (*Response, error) {
	return func(call int, _ *Request) (*Response, error) {
		state := IPPJobStateProcessing
		if call >= n {
			state = IPPJobStateCompleted
		}
		return &Response{
			Status:        StatusSuccessfulOK,
			JobAttributes: map[string]any{AttrJobState: state},
		}, nil
	}
}
