package bind_group_provider

// BufferWrite describes a single staged GPU buffer write targeting a binding of a BindGroupProvider at a
// given byte offset. Data is a copy owned by the write.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
