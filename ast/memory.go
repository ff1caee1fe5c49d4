package ast

// Memory instructions.
type (
	// Load reads a full-width value from linear memory.
	Load struct {
		Type NumberType
		Arg  MemArg
	}

	// Load8 reads a byte and extends it to an integer.
	Load8 struct {
		Type IntegerType
		Sign SignExtension
		Arg  MemArg
	}

	// Load16 reads two bytes and extends them to an integer.
	Load16 struct {
		Type IntegerType
		Sign SignExtension
		Arg  MemArg
	}

	// Load32 reads four bytes and extends them to an i64.
	Load32 struct {
		Sign SignExtension
		Arg  MemArg
	}

	// Store writes a full-width value to linear memory.
	Store struct {
		Type NumberType
		Arg  MemArg
	}

	// Store8 writes the low byte of an integer.
	Store8 struct {
		Type IntegerType
		Arg  MemArg
	}

	// Store16 writes the low two bytes of an integer.
	Store16 struct {
		Type IntegerType
		Arg  MemArg
	}

	// Store32 writes the low four bytes of an i64.
	Store32 struct {
		Arg MemArg
	}

	// MemorySize pushes the current size of memory in pages.
	MemorySize struct{}

	// MemoryGrow grows memory by a number of pages.
	MemoryGrow struct{}

	// MemoryInit copies a range from a passive data segment into memory.
	MemoryInit struct {
		Data DataIndex
	}

	// DataDrop discards a passive data segment.
	DataDrop struct {
		Data DataIndex
	}

	// MemoryCopy copies a range of memory, handling overlap.
	MemoryCopy struct{}

	// MemoryFill fills a range of memory with a byte value.
	MemoryFill struct{}
)

func (Load) instrNode()       {}
func (Load8) instrNode()      {}
func (Load16) instrNode()     {}
func (Load32) instrNode()     {}
func (Store) instrNode()      {}
func (Store8) instrNode()     {}
func (Store16) instrNode()    {}
func (Store32) instrNode()    {}
func (MemorySize) instrNode() {}
func (MemoryGrow) instrNode() {}
func (MemoryInit) instrNode() {}
func (DataDrop) instrNode()   {}
func (MemoryCopy) instrNode() {}
func (MemoryFill) instrNode() {}

func (Load) memoryNode()       {}
func (Load8) memoryNode()      {}
func (Load16) memoryNode()     {}
func (Load32) memoryNode()     {}
func (Store) memoryNode()      {}
func (Store8) memoryNode()     {}
func (Store16) memoryNode()    {}
func (Store32) memoryNode()    {}
func (MemorySize) memoryNode() {}
func (MemoryGrow) memoryNode() {}
func (MemoryInit) memoryNode() {}
func (DataDrop) memoryNode()   {}
func (MemoryCopy) memoryNode() {}
func (MemoryFill) memoryNode() {}

// NewLoad returns a Load with the natural alignment for its access width.
func NewLoad(t NumberType, offset uint64) Load {
	return Load{Type: t, Arg: MemArg{Offset: offset, Align: alignFor(t.Width())}}
}

// NewStore returns a Store with the natural alignment for its access width.
func NewStore(t NumberType, offset uint64) Store {
	return Store{Type: t, Arg: MemArg{Offset: offset, Align: alignFor(t.Width())}}
}

// NewLoad8 returns a byte-aligned Load8.
func NewLoad8(t IntegerType, sign SignExtension, offset uint64) Load8 {
	return Load8{Type: t, Sign: sign, Arg: MemArg{Offset: offset}}
}

// NewLoad16 returns a Load16 with two-byte alignment.
func NewLoad16(t IntegerType, sign SignExtension, offset uint64) Load16 {
	return Load16{Type: t, Sign: sign, Arg: MemArg{Offset: offset, Align: 1}}
}

// NewLoad32 returns a Load32 with four-byte alignment.
func NewLoad32(sign SignExtension, offset uint64) Load32 {
	return Load32{Sign: sign, Arg: MemArg{Offset: offset, Align: 2}}
}

// NewStore8 returns a byte-aligned Store8.
func NewStore8(t IntegerType, offset uint64) Store8 {
	return Store8{Type: t, Arg: MemArg{Offset: offset}}
}

// NewStore16 returns a Store16 with two-byte alignment.
func NewStore16(t IntegerType, offset uint64) Store16 {
	return Store16{Type: t, Arg: MemArg{Offset: offset, Align: 1}}
}

// NewStore32 returns a Store32 with four-byte alignment.
func NewStore32(offset uint64) Store32 {
	return Store32{Arg: MemArg{Offset: offset, Align: 2}}
}
