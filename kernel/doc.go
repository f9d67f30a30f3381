// Package kernel provides the kernel protocol types, the websocket
// kernel client, and the pool that leases kernels to requests.
//
// A kernel is a stateful remote execution unit: it accepts code over
// its message channel and asynchronously emits result, stream, error,
// and status messages, each tagged with the id of the submission that
// produced it.
//
// # Pool
//
// The Pool owns a fixed set of kernel connections and is the only
// synchronization point for shared kernel access:
//
//	pool, _ := kernel.NewPool(kernel.PoolConfig{Connections: conns})
//	client, id, _ := pool.Acquire(ctx)
//	defer pool.Release(id)
//	pool.RegisterListener(id, func(msg kernel.Message) { ... })
//	msgID, _ := client.Execute(ctx, code)
//
// A kernel's inbound stream is forwarded to at most one listener at a
// time; the pool assigns the listener on registration and clears it on
// release, so callers cannot leak a listener across leases.
package kernel
