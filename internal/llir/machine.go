package llir

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"fortio.org/safecast"
)

// Machine is a Builder that executes each primitive immediately over byte
// buffers instead of emitting code. Memory is little-endian like riscv64.
type Machine struct {
	dl DataLayout
	// Fill is written into every fresh allocation so that bytes a rewrite
	// never copies stay recognizable.
	Fill   byte
	blocks []*Block
}

// Block is one allocation.
type Block struct {
	id    int
	Name  string
	Align uint64
	Data  []byte
}

// Pointer addresses a byte inside a Block.
type Pointer struct {
	Block *Block
	Off   uint64
}

// Type returns ptr.
func (p *Pointer) Type() Type { return Ptr }

func (p *Pointer) String() string {
	return fmt.Sprintf("&%s+%d", p.Block.Name, p.Off)
}

// Bits is a first-class value held as its in-memory image.
type Bits struct {
	Ty   Type
	Data []byte
}

// Type returns the value's type.
func (v *Bits) Type() Type { return v.Ty }

func (v *Bits) String() string {
	return fmt.Sprintf("%s 0x%s", v.Ty, hex.EncodeToString(v.Data))
}

// NewMachine returns a Machine for the data layout.
func NewMachine(dl DataLayout) *Machine {
	return &Machine{dl: dl, Fill: 0xAA}
}

// DataLayout returns the machine's data layout.
func (m *Machine) DataLayout() DataLayout { return m.dl }

// Alloc reserves size bytes and copies init into the start of the block.
func (m *Machine) Alloc(size, align uint64, name string, init []byte) *Pointer {
	blk := &Block{id: len(m.blocks), Name: name, Align: max(align, 1), Data: make([]byte, size)}
	for i := range blk.Data {
		blk.Data[i] = m.Fill
	}
	copy(blk.Data, init)
	m.blocks = append(m.blocks, blk)
	return &Pointer{Block: blk}
}

// Read returns a copy of n bytes at p.
func (m *Machine) Read(p Value, n uint64) []byte {
	ptr := m.pointer(p)
	m.check(ptr, n)
	out := make([]byte, n)
	copy(out, ptr.Block.Data[ptr.Off:ptr.Off+n])
	return out
}

// Value wraps an in-memory image as a value of ty.
func (m *Machine) Value(ty Type, data []byte) *Bits {
	n := m.dl.StoreSize(ty)
	buf := make([]byte, n)
	copy(buf, data)
	return &Bits{Ty: ty, Data: buf}
}

// RawAlloca allocates storage for one ty.
func (m *Machine) RawAlloca(ty Type, align uint64, name string) Value {
	return m.Alloc(m.dl.AllocSize(ty), align, name, nil)
}

// AllocaDump allocates storage for ty and stores v into it.
func (m *Machine) AllocaDump(v Value, ty Type, align uint64, name string) Value {
	size := max(m.dl.AllocSize(ty), m.dl.StoreSize(v.Type()))
	ptr := m.Alloc(size, align, name, nil)
	m.Store(v, ptr)
	return ptr
}

// MemCpy copies n bytes between allocations.
func (m *Machine) MemCpy(dst, src Value, n uint64) {
	d, s := m.pointer(dst), m.pointer(src)
	m.check(d, n)
	m.check(s, n)
	copy(d.Block.Data[d.Off:d.Off+n], s.Block.Data[s.Off:s.Off+n])
}

// Load reads a value of ty.
func (m *Machine) Load(ty Type, ptr Value, _ string) Value {
	p := m.pointer(ptr)
	if _, isPtr := ty.(PointerType); isPtr {
		return m.decodePointer(m.Read(p, m.dl.PtrSize))
	}
	return &Bits{Ty: ty, Data: m.Read(p, m.dl.StoreSize(ty))}
}

// Store writes v at ptr.
func (m *Machine) Store(v, ptr Value) {
	p := m.pointer(ptr)
	var data []byte
	switch vv := v.(type) {
	case *Bits:
		data = vv.Data
	case *Pointer:
		data = m.encodePointer(vv)
	default:
		panic(fmt.Sprintf("llir: machine cannot store %T", v))
	}
	n, err := safecast.Conv[uint64](len(data))
	if err != nil {
		panic(err)
	}
	m.check(p, n)
	copy(p.Block.Data[p.Off:], data)
}

// GEP addresses element i1 of the i0-th aggregate ty at ptr.
func (m *Machine) GEP(ty Type, ptr Value, i0, i1 int) Value {
	p := m.pointer(ptr)
	first, err := safecast.Conv[uint64](i0)
	if err != nil {
		panic(fmt.Sprintf("llir: negative gep index %d", i0))
	}
	off := p.Off + first*m.dl.AllocSize(ty)
	switch tt := ty.(type) {
	case *StructType:
		off += m.dl.ElemOffset(tt, i1)
	case ArrayType:
		idx, err := safecast.Conv[uint64](i1)
		if err != nil {
			panic(fmt.Sprintf("llir: negative gep index %d", i1))
		}
		off += idx * m.dl.AllocSize(tt.Elem)
	default:
		panic(fmt.Sprintf("llir: gep into non-aggregate %v", ty))
	}
	return &Pointer{Block: p.Block, Off: off}
}

// GEP1 advances ptr by idx elements of ty.
func (m *Machine) GEP1(ty Type, ptr Value, idx uint64) Value {
	p := m.pointer(ptr)
	return &Pointer{Block: p.Block, Off: p.Off + idx*m.dl.AllocSize(ty)}
}

func (m *Machine) pointer(v Value) *Pointer {
	p, ok := v.(*Pointer)
	if !ok || p == nil || p.Block == nil {
		panic(fmt.Sprintf("llir: expected an address, got %v", v))
	}
	return p
}

func (m *Machine) check(p *Pointer, n uint64) {
	size, err := safecast.Conv[uint64](len(p.Block.Data))
	if err != nil {
		panic(err)
	}
	if p.Off > size || n > size-p.Off {
		panic(fmt.Sprintf("llir: access of %d bytes at %s overruns %d-byte block", n, p, size))
	}
}

// Pointers are encoded as (block index + 1) << 32 | offset.
func (m *Machine) encodePointer(p *Pointer) []byte {
	buf := make([]byte, m.dl.PtrSize)
	idx, err := safecast.Conv[uint64](p.Block.id + 1)
	if err != nil {
		panic(err)
	}
	binary.LittleEndian.PutUint64(buf, idx<<32|p.Off)
	return buf
}

func (m *Machine) decodePointer(data []byte) Value {
	raw := binary.LittleEndian.Uint64(data)
	idx := raw >> 32
	if idx == 0 || idx > uint64(len(m.blocks)) {
		return &Bits{Ty: Ptr, Data: data}
	}
	return &Pointer{Block: m.blocks[idx-1], Off: raw & 0xffffffff}
}
