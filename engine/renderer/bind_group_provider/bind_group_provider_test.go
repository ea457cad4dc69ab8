package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestBuffersByBinding(t *testing.T) {
	a, b := &wgpu.Buffer{}, &wgpu.Buffer{}
	p := NewBindGroupProvider("objects", WithBuffer(2, a))
	p.SetBuffer(0, b)

	assert.Equal(t, "objects", p.Label())
	assert.Same(t, a, p.Buffer(2))
	assert.Same(t, b, p.Buffer(0))
	assert.Nil(t, p.Buffer(1))
	assert.Equal(t, []int{0, 2}, p.Bindings())
	assert.Nil(t, p.BindGroup())
}
