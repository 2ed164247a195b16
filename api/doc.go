// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the public contracts of hioload-pipeline: the
// handler/pipeline event-propagation model, the promise abstraction for
// outbound operations, the transport boundary, and the executor contract
// that supplies each pipeline's execution affinity.
//
// Inbound events flow head to tail, outbound operations flow tail to
// head. A handler implements either or both of the InboundHandler and
// OutboundHandler capability axes; dispatch skips contexts whose handler
// lacks the relevant axis.
package api
