package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-registry/engine/registry"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-registry/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedWrite struct {
	buffer *wgpu.Buffer
	offset uint64
	data   []byte
}

// recordingBackend hands out placeholder buffers and records queue writes.
type recordingBackend struct {
	created  []wgpu.BufferDescriptor
	writes   []recordedWrite
	failNext bool
}

func (b *recordingBackend) CreateBuffer(descriptor *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	b.created = append(b.created, *descriptor)
	return &wgpu.Buffer{}, nil
}

func (b *recordingBackend) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	if b.failNext {
		b.failNext = false
		return errors.New("queue lost")
	}
	b.writes = append(b.writes, recordedWrite{buffer: buffer, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func TestMirrorBufferLifecycle(t *testing.T) {
	reg := registry.NewRegistry(registry.WithWorkers(1))
	defer reg.Release()
	for _, f := range material.Features {
		_, err := reg.Components().RegisterComponent(f, nil)
		require.NoError(t, err)
	}
	table, err := reg.NewTable("materials", material.Layout, registry.WithCapacity(4))
	require.NoError(t, err)

	backend := &recordingBackend{}
	r := NewRenderer(backend)
	provider := bind_group_provider.NewBindGroupProvider("objects")
	table.Bind(provider, 1)
	require.NoError(t, r.CreateMirrorBuffer(provider, 1, table.Mirror()))

	require.Len(t, backend.created, 1)
	assert.Equal(t, uint64(4*material.Layout.Stride), backend.created[0].Size)
	assert.NotZero(t, backend.created[0].Usage&wgpu.BufferUsageCopyDst)
	assert.NotZero(t, backend.created[0].Usage&wgpu.BufferUsageStorage)
	require.Len(t, backend.writes, 1, "the buffer is seeded with the whole mirror")
	assert.Len(t, backend.writes[0].data, int(table.Mirror().Size()))

	m := material.NewMaterial(material.WithBaseColor([4]float32{1, 0, 0, 1}))
	_, err = table.Add(m)
	require.NoError(t, err)
	result, err := reg.Update()
	require.NoError(t, err)
	require.NoError(t, r.WriteBuffers(result.Writes))

	require.Len(t, backend.writes, 2)
	last := backend.writes[1]
	assert.Same(t, provider.Buffer(1), last.buffer)
	assert.Equal(t, uint64(0), last.offset)
	g := m.GPU()
	assert.Equal(t, g.Marshal(), last.data)

	stats := r.Stats()
	assert.Equal(t, 2, stats.Writes)
	assert.Equal(t, table.Mirror().Size()+uint64(material.Layout.Stride), stats.Bytes)
}

func TestWriteBuffersSkipsAndJoinsErrors(t *testing.T) {
	backend := &recordingBackend{}
	r := NewRenderer(backend)
	bound := bind_group_provider.NewBindGroupProvider("bound", bind_group_provider.WithBuffer(0, &wgpu.Buffer{}))
	unbound := bind_group_provider.NewBindGroupProvider("unbound")

	backend.failNext = true
	err := r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: bound, Binding: 0, Offset: 0, Data: []byte{1, 2, 3, 4}},
		{Provider: unbound, Binding: 0, Offset: 0, Data: []byte{5, 6, 7, 8}},
		{Provider: bound, Binding: 0, Offset: 16, Data: []byte{9, 9, 9, 9}},
	})
	assert.ErrorContains(t, err, "queue lost")
	require.Len(t, backend.writes, 1)
	assert.Equal(t, uint64(16), backend.writes[0].offset)
	assert.Equal(t, WriteStats{Writes: 1, Bytes: 4, Skipped: 1}, r.Stats())
}

func TestNoBackend(t *testing.T) {
	r := NewRenderer(nil)
	assert.ErrorIs(t, r.WriteBuffers(nil), ErrNoBackend)
	assert.ErrorIs(t, r.CreateMirrorBuffer(bind_group_provider.NewBindGroupProvider("x"), 0, nil), ErrNoBackend)
}
