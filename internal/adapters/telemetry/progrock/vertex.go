package progrock

import (
	"io"

	"github.com/vito/progrock"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder
}

// Stdout returns a writer for phase output.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Complete marks the vertex as finished, successfully or with an error.
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
}

// Cached marks the vertex as skipped.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}
