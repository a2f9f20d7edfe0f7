package device

import (
	"errors"
	"testing"
)

func squareKernel(in, out *Buffer[int32]) KernelFunc {
	return func(g WorkGroup) {
		src, dst := in.Data(), out.Data()
		g.Items1D(func(gid int) {
			dst[gid] = src[gid] * src[gid]
		})
	}
}

func TestKernelExec1DWithAutoLocalWorkSize(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	dataSize := 1000
	dataIn := make([]int32, dataSize)
	for i := 0; i < dataSize; i++ {
		dataIn[i] = int32(i)
	}

	bufIn := NewBuffer[int32](dev, "in")
	if err := bufIn.AllocateAndWriteData(dataIn); err != nil {
		t.Fatal(err)
	}
	bufOut := NewBuffer[int32](dev, "out")
	if err := bufOut.Allocate(dataSize); err != nil {
		t.Fatal(err)
	}

	kernel := dev.Kernel("square", squareKernel(bufIn, bufOut))
	defer kernel.Release()

	if _, err := kernel.Exec1D(0, dataSize, 0); err != nil {
		t.Fatal(err)
	}

	// Fetch and validate output
	dataOut := make([]int32, dataSize)
	if err := bufOut.ReadData(0, 0, 0, dataOut); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < dataSize; i++ {
		expValue := dataIn[i] * dataIn[i]
		if dataOut[i] != expValue {
			t.Fatalf("[item %d] expected squared value of %d to be %d; got %d", i, dataIn[i], expValue, dataOut[i])
		}
	}
}

func TestKernelExec1DWithOffset(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	dataSize := 32
	bufIn := NewBuffer[int32](dev, "in")
	bufOut := NewBuffer[int32](dev, "out")
	dataIn := make([]int32, dataSize)
	for i := range dataIn {
		dataIn[i] = int32(i)
	}
	if err := bufIn.AllocateAndWriteData(dataIn); err != nil {
		t.Fatal(err)
	}
	if err := bufOut.Allocate(dataSize); err != nil {
		t.Fatal(err)
	}

	kernel := dev.Kernel("square", squareKernel(bufIn, bufOut))
	if _, err := kernel.Exec1D(16, 16, 3); err != nil {
		t.Fatal(err)
	}

	dataOut := make([]int32, dataSize)
	if err := bufOut.ReadData(0, 0, 0, dataOut); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < dataSize; i++ {
		var expValue int32
		if i >= 16 {
			expValue = dataIn[i] * dataIn[i]
		}
		if dataOut[i] != expValue {
			t.Fatalf("[item %d] expected value to be %d; got %d", i, expValue, dataOut[i])
		}
	}
}

func TestKernelExec2D(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	dataWidth := 13
	dataHeight := 7

	bufOut := NewBuffer[int32](dev, "out")
	if err := bufOut.Allocate(dataWidth * dataHeight); err != nil {
		t.Fatal(err)
	}

	kernel := dev.Kernel("mapBlock", func(g WorkGroup) {
		out := bufOut.Data()
		g.Items2D(func(x, y int) {
			out[y*dataWidth+x] = int32(y*dataWidth + x)
		})
	})

	for _, localSize := range [][2]int{{0, 0}, {1, 1}, {4, 2}} {
		if _, err := kernel.Exec2D(0, 0, dataWidth, dataHeight, localSize[0], localSize[1]); err != nil {
			t.Fatal(err)
		}

		dataOut := make([]int32, dataWidth*dataHeight)
		if err := bufOut.ReadData(0, 0, 0, dataOut); err != nil {
			t.Fatal(err)
		}
		for i := range dataOut {
			if dataOut[i] != int32(i) {
				t.Fatalf("[local size %v, item %d] expected value to be %d; got %d", localSize, i, i, dataOut[i])
			}
		}
	}

	if _, err := kernel.Exec2D(0, 0, dataWidth, dataHeight, 4, 0); !errors.Is(err, ErrInvalidWorkSize) {
		t.Fatalf("expected ErrInvalidWorkSize; got %v", err)
	}
}

func TestKernelExec1DIndirect(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	const localSize = 4
	counter := NewBuffer[uint32](dev, "counter")
	if err := counter.AllocateAndWriteData([]uint32{10}); err != nil {
		t.Fatal(err)
	}
	args := NewBuffer[DispatchArgs](dev, "args")
	if err := args.Allocate(2); err != nil {
		t.Fatal(err)
	}
	out := NewBuffer[uint32](dev, "out")
	if err := out.Allocate(16); err != nil {
		t.Fatal(err)
	}

	// The args kernel derives the group count from a device-side counter.
	argsKernel := dev.Kernel("args", func(g WorkGroup) {
		count := counter.Data()[0]
		args.Data()[1] = DispatchArgs{GroupsX: (count + localSize - 1) / localSize, GroupsY: 1, GroupsZ: 1}
	})
	markKernel := dev.Kernel("mark", func(g WorkGroup) {
		dst := out.Data()
		g.Items1D(func(gid int) {
			dst[gid]++
		})
	})

	if _, err := argsKernel.Exec1D(0, 1, 1); err != nil {
		t.Fatal(err)
	}
	// args[0] is still zero; dispatching it must be a no-op
	if _, err := markKernel.Exec1DIndirect(args, 0, localSize); err != nil {
		t.Fatal(err)
	}
	if _, err := markKernel.Exec1DIndirect(args, 1, localSize); err != nil {
		t.Fatal(err)
	}

	dataOut := make([]uint32, 16)
	if err := out.ReadData(0, 0, 0, dataOut); err != nil {
		t.Fatal(err)
	}
	for i, v := range dataOut {
		var exp uint32
		if i < 12 {
			exp = 1
		}
		if v != exp {
			t.Fatalf("[item %d] expected value to be %d; got %d", i, exp, v)
		}
	}

	if _, err := markKernel.Exec1DIndirect(args, 2, localSize); err == nil {
		t.Fatal("expected an error for an out of range args index")
	}
}

func TestKernelPanicIsReported(t *testing.T) {
	dev := createCpuDevice(t)
	defer dev.Close()

	buf := NewBuffer[int32](dev, "small")
	if err := buf.Allocate(4); err != nil {
		t.Fatal(err)
	}

	kernel := dev.Kernel("overflow", func(g WorkGroup) {
		data := buf.Data()
		g.Items1D(func(gid int) {
			data[gid] = 1
		})
	})

	if _, err := kernel.Exec1D(0, 8, 2); err == nil {
		t.Fatal("expected out of range access to be reported as an error")
	}
}

func TestKernelErrors(t *testing.T) {
	devList, err := SelectDevices(ReferenceDevice, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(devList) != 1 {
		t.Fatalf("expected exactly one reference device; got %d", len(devList))
	}
	dev := devList[0]

	kernel := dev.Kernel("noop", func(WorkGroup) {})
	if _, err = kernel.Exec1D(0, 1, 1); !errors.Is(err, ErrDeviceNotInitialized) {
		t.Fatalf("expected ErrDeviceNotInitialized; got %v", err)
	}

	if err = dev.Init(); err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	if _, err = kernel.Exec1D(0, -1, 1); !errors.Is(err, ErrInvalidWorkSize) {
		t.Fatalf("expected ErrInvalidWorkSize; got %v", err)
	}

	kernel.Release()
	if _, err = kernel.Exec1D(0, 1, 1); !errors.Is(err, ErrKernelReleased) {
		t.Fatalf("expected ErrKernelReleased; got %v", err)
	}
}

func TestSelectDevices(t *testing.T) {
	all, err := SelectDevices(AllDevices, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 devices; got %d", len(all))
	}

	none, err := SelectDevices(AllDevices, "no-such-device")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no devices to match; got %d", len(none))
	}

	if _, err = SelectDevices(0, ""); err == nil {
		t.Fatal("expected an error for an empty type mask")
	}
}
