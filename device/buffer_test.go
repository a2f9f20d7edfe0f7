package device

import (
	"reflect"
	"testing"
)

func TestBufferAllocate(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	buf := NewBuffer[uint32](dev, "test")
	defer buf.Release()
	err := buf.Allocate(32)
	if err != nil {
		t.Fatal(err)
	}

	expSize := 128
	if buf.Size() != expSize {
		t.Fatalf("expected buffer size to be %d; got %d", expSize, buf.Size())
	}
	if buf.Len() != 32 {
		t.Fatalf("expected buffer len to be %d; got %d", 32, buf.Len())
	}

	if err = buf.Allocate(-1); err == nil {
		t.Fatal("expected an error when allocating a negative element count")
	}
}

func TestBufferEnsureGrowOnly(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	buf := NewBuffer[float32](dev, "test")
	type spec struct {
		count       int
		expRealloc  bool
		expCapacity int
	}
	specs := []spec{
		{16, true, 16},
		{8, false, 16},
		{16, false, 16},
		{17, true, 17},
		{0, false, 17},
	}

	for index, s := range specs {
		realloc, err := buf.Ensure(s.count, GrowOnly)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if realloc != s.expRealloc {
			t.Fatalf("[spec %d] expected realloc to be %t; got %t", index, s.expRealloc, realloc)
		}
		if buf.Len() != s.expCapacity {
			t.Fatalf("[spec %d] expected capacity to be %d; got %d", index, s.expCapacity, buf.Len())
		}
	}
}

func TestBufferEnsureExactResize(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	buf := NewBuffer[float32](dev, "test")
	type spec struct {
		count      int
		expRealloc bool
	}
	specs := []spec{
		{16, true},
		{16, false},
		{8, true},
		{32, true},
	}

	for index, s := range specs {
		realloc, err := buf.Ensure(s.count, ExactResize)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if realloc != s.expRealloc {
			t.Fatalf("[spec %d] expected realloc to be %t; got %t", index, s.expRealloc, realloc)
		}
		if buf.Len() != s.count {
			t.Fatalf("[spec %d] expected capacity to be %d; got %d", index, s.count, buf.Len())
		}
	}

	if _, err := buf.Ensure(4, AllocPolicy(42)); err == nil {
		t.Fatal("expected an error for an unknown allocation policy")
	}
}

func TestDataReadWrite(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	data := make([]byte, 128)
	for i := 0; i < 128; i++ {
		data[i] = byte(i)
	}

	buf := NewBuffer[byte](dev, "test")
	defer buf.Release()
	err := buf.AllocateAndWriteData(data)
	if err != nil {
		t.Fatal(err)
	}

	dataOut := make([]byte, 128)
	err = buf.ReadData(0, 0, 0, dataOut)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(data, dataOut) {
		t.Fatal("read data does not match written data")
	}
}

func TestDataReadWriteWithStructSlices(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	type foo struct {
		x     float32
		index uint32
	}

	numFoos := 10
	data := make([]foo, numFoos)
	for i := 0; i < numFoos; i++ {
		data[i].x = float32(i)
		data[i].index = uint32(i * 2)
	}

	buf := NewBuffer[foo](dev, "test")
	defer buf.Release()
	err := buf.Allocate(numFoos)
	if err != nil {
		t.Fatal(err)
	}

	if buf.Size() != numFoos*8 {
		t.Fatalf("expected buffer size to be %d; got %d", numFoos*8, buf.Size())
	}

	err = buf.WriteData(data, 0)
	if err != nil {
		t.Fatal(err)
	}

	dataOut := make([]foo, numFoos)
	err = buf.ReadData(0, 0, 0, dataOut)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(data, dataOut) {
		t.Fatal("read data does not match written data")
	}
}

func TestDataReadWriteOffsets(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	data := make([]byte, 64)
	for i := 0; i < 64; i++ {
		data[i] = byte(i)
	}

	buf := NewBuffer[byte](dev, "test")
	defer buf.Release()
	err := buf.Allocate(128)
	if err != nil {
		t.Fatal(err)
	}

	err = buf.WriteData(data, 64)
	if err != nil {
		t.Fatal(err)
	}

	dataOut := make([]byte, 128)
	err = buf.ReadData(64, 0, 64, dataOut)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(data, dataOut[:64]) {
		t.Fatal("read data does not match written data")
	}

	if err = buf.WriteData(data, 96); err == nil {
		t.Fatal("expected an error when writing past the end of the buffer")
	}
	if err = buf.ReadData(100, 0, 64, dataOut); err == nil {
		t.Fatal("expected an error when reading past the end of the buffer")
	}
	if err = buf.ReadData(200, 0, 0, dataOut); err == nil {
		t.Fatal("expected an error when reading from an offset past the end of the buffer")
	}
}

func TestIndexOf(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	buf := NewBuffer[uint32](dev, "counters")
	if err := buf.Allocate(4); err != nil {
		t.Fatal(err)
	}

	index, err := buf.IndexOf(8)
	if err != nil {
		t.Fatal(err)
	}
	if index != 2 {
		t.Fatalf("expected byte offset 8 to map to index 2; got %d", index)
	}

	if _, err = buf.IndexOf(6); err == nil {
		t.Fatal("expected an error for a misaligned byte offset")
	}
	if _, err = buf.IndexOf(16); err == nil {
		t.Fatal("expected an error for an out of range byte offset")
	}
}

func createCpuDevice(t *testing.T) *Device {
	devList, err := SelectDevices(CpuDevice, "CPU")
	if err != nil {
		t.Fatal(err)
	}
	if len(devList) == 0 {
		t.Fatal("expected at least one CPU device")
	}

	dev := devList[0]
	if err = dev.Init(); err != nil {
		t.Fatal(err)
	}

	return dev
}

func TestParseAllocPolicy(t *testing.T) {
	for _, policy := range []AllocPolicy{GrowOnly, ExactResize} {
		parsed, err := ParseAllocPolicy(policy.String())
		if err != nil {
			t.Fatalf("unexpected error parsing %q: %v", policy, err)
		}
		if parsed != policy {
			t.Fatalf("expected parsed policy to be %s; got %s", policy, parsed)
		}
	}

	if _, err := ParseAllocPolicy("shrink"); err == nil {
		t.Fatal("expected an error for an unknown policy name")
	}
}
