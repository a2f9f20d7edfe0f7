package bitonic

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/achilleasa/lightcuts/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDevice(t *testing.T) *device.Device {
	t.Helper()

	devList, err := device.SelectDevices(device.CpuDevice, "")
	require.NoError(t, err)
	require.NotEmpty(t, devList)

	dev := devList[0]
	require.NoError(t, dev.Init())
	t.Cleanup(dev.Close)
	return dev
}

func randomKeys(n int, seed uint64) []uint32 {
	rng := rand.New(rand.NewPCG(seed, 0xb170))
	keys := make([]uint32, n)
	for i := range keys {
		// A narrow key range exercises duplicate handling.
		keys[i] = rng.Uint32N(1 << 12)
	}
	return keys
}

func TestNewRejectsUnsupportedWidth(t *testing.T) {
	dev := createDevice(t)

	_, err := New(dev, KeyWidth(16))
	require.ErrorIs(t, err, ErrUnsupportedKeyWidth)

	_, err = ParseKeyWidth(48)
	require.ErrorIs(t, err, ErrUnsupportedKeyWidth)

	width, err := ParseKeyWidth(64)
	require.NoError(t, err)
	assert.Equal(t, Key64, width)
}

func TestSort32(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key32)
	require.NoError(t, err)
	defer sorter.Close()

	counts := []int{0, 1, 2, 3, 5, 100, 2047, 2048, 2049, 4096, 5000, 9000}
	for _, descending := range []bool{false, true} {
		for _, count := range counts {
			// Spare capacity past the logical count must never be touched.
			capacity := count + 37
			keys := randomKeys(capacity, uint64(count))

			buf := device.NewBuffer[uint32](dev, "keys")
			require.NoError(t, buf.AllocateAndWriteData(keys))

			_, err = sorter.Sort(buf, uint32(count), Options{Descending: descending})
			require.NoError(t, err, "count=%d descending=%t", count, descending)

			out := make([]uint32, capacity)
			require.NoError(t, buf.ReadData(0, 0, 0, out))

			exp := slices.Clone(keys[:count])
			slices.Sort(exp)
			if descending {
				slices.Reverse(exp)
			}
			require.Equal(t, exp, out[:count], "count=%d descending=%t", count, descending)
			require.Equal(t, keys[count:], out[count:], "count=%d descending=%t: tail modified", count, descending)
		}
	}
}

func TestSort64PreservesPayloads(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key64)
	require.NoError(t, err)
	defer sorter.Close()

	const count = 6000
	keys := randomKeys(count, 99)
	records := make([]uint64, count)
	for i, key := range keys {
		records[i] = Pack(key, uint32(i))
	}

	buf := device.NewBuffer[uint64](dev, "records")
	require.NoError(t, buf.AllocateAndWriteData(records))

	stats, err := sorter.Sort(buf, count, Options{})
	require.NoError(t, err)
	assert.Greater(t, stats.Dispatches, 2)

	out := make([]uint64, count)
	require.NoError(t, buf.ReadData(0, 0, 0, out))

	seen := make([]bool, count)
	for i, rec := range out {
		key, payload := Unpack(rec)
		require.Equal(t, keys[payload], key, "record %d carries the wrong key", i)
		require.False(t, seen[payload], "payload %d appears twice", payload)
		seen[payload] = true
		if i > 0 {
			prevKey, prevPayload := Unpack(out[i-1])
			require.True(t, prevKey < key || (prevKey == key && prevPayload < payload), "records %d and %d out of order", i-1, i)
		}
	}
}

func TestSentinelsSortLast(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key64)
	require.NoError(t, err)
	defer sorter.Close()

	for _, descending := range []bool{false, true} {
		sentinel := uint64(0xFFFFFFFFFFFFFFFF)
		if descending {
			sentinel = 0
		}

		// 5 real records followed by 3 padding records; only the real ones
		// are part of the logical count.
		records := []uint64{Pack(7, 0), Pack(3, 1), Pack(9, 2), Pack(1, 3), Pack(5, 4), sentinel, sentinel, sentinel}
		buf := device.NewBuffer[uint64](dev, "leaves")
		require.NoError(t, buf.AllocateAndWriteData(records))

		_, err = sorter.Sort(buf, 5, Options{Descending: descending})
		require.NoError(t, err)

		out := make([]uint64, len(records))
		require.NoError(t, buf.ReadData(0, 0, 0, out))
		assert.Equal(t, []uint64{sentinel, sentinel, sentinel}, out[5:])

		expKeys := []uint32{1, 3, 5, 7, 9}
		if descending {
			slices.Reverse(expKeys)
		}
		for i, exp := range expKeys {
			key, _ := Unpack(out[i])
			assert.Equal(t, exp, key, "descending=%t slot %d", descending, i)
		}
	}
}

func TestSmallCountsDispatchNoComparatorWork(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key32)
	require.NoError(t, err)
	defer sorter.Close()

	buf := device.NewBuffer[uint32](dev, "keys")
	require.NoError(t, buf.AllocateAndWriteData([]uint32{9, 8, 7, 6}))

	for _, count := range []uint32{0, 1} {
		before := dev.Dispatches()
		_, err = sorter.Sort(buf, count, Options{})
		require.NoError(t, err)

		// Only the indirect args dispatch executes.
		assert.Equal(t, uint64(1), dev.Dispatches()-before, "count=%d", count)
	}

	out := make([]uint32, 4)
	require.NoError(t, buf.ReadData(0, 0, 0, out))
	assert.Equal(t, []uint32{9, 8, 7, 6}, out)
}

func TestExactGroupSizeSkipsMergePasses(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key32)
	require.NoError(t, err)
	defer sorter.Close()

	buf := device.NewBuffer[uint32](dev, "keys")
	require.NoError(t, buf.AllocateAndWriteData(randomKeys(8192, 5)))

	before := dev.Dispatches()
	_, err = sorter.Sort(buf, groupSortSize, Options{})
	require.NoError(t, err)

	// indirect args + pre-sort; all merge passes have zero groups.
	assert.Equal(t, uint64(2), dev.Dispatches()-before)
}

func TestSortIndirect(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key32)
	require.NoError(t, err)
	defer sorter.Close()

	keys := randomKeys(3000, 11)
	buf := device.NewBuffer[uint32](dev, "keys")
	require.NoError(t, buf.AllocateAndWriteData(keys))

	// The count lives in the third slot of a counter buffer.
	counter := device.NewBuffer[uint32](dev, "counters")
	require.NoError(t, counter.AllocateAndWriteData([]uint32{0, 0, 2500, 0}))

	_, err = sorter.SortIndirect(buf, counter, 8, Options{})
	require.NoError(t, err)

	out := make([]uint32, len(keys))
	require.NoError(t, buf.ReadData(0, 0, 0, out))
	exp := slices.Clone(keys[:2500])
	slices.Sort(exp)
	assert.Equal(t, exp, out[:2500])
	assert.Equal(t, keys[2500:], out[2500:])

	_, err = sorter.SortIndirect(buf, counter, 6, Options{})
	require.Error(t, err)
}

func TestSortIndirectCountBeyondCapacityFails(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key32)
	require.NoError(t, err)
	defer sorter.Close()

	buf := device.NewBuffer[uint32](dev, "keys")
	require.NoError(t, buf.AllocateAndWriteData(randomKeys(16, 1)))

	counter := device.NewBuffer[uint32](dev, "counter")
	require.NoError(t, counter.AllocateAndWriteData([]uint32{64}))

	_, err = sorter.SortIndirect(buf, counter, 0, Options{})
	require.Error(t, err)

	_, err = sorter.Sort(buf, 64, Options{})
	require.ErrorIs(t, err, ErrCountExceedsCapacity)
}

func TestPreSortedSkipsPreSortStage(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key32)
	require.NoError(t, err)
	defer sorter.Close()

	// Two ascending runs of 2048 elements.
	keys := randomKeys(4096, 3)
	slices.Sort(keys[:2048])
	slices.Sort(keys[2048:])

	buf := device.NewBuffer[uint32](dev, "keys")
	require.NoError(t, buf.AllocateAndWriteData(keys))

	stats, err := sorter.Sort(buf, 4096, Options{PreSorted: true})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Dispatches)

	out := make([]uint32, len(keys))
	require.NoError(t, buf.ReadData(0, 0, 0, out))
	assert.True(t, slices.IsSorted(out))
}

func TestWidthMismatch(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key64)
	require.NoError(t, err)
	defer sorter.Close()

	buf := device.NewBuffer[uint32](dev, "keys")
	require.NoError(t, buf.Allocate(4))

	_, err = sorter.Sort(buf, 4, Options{})
	require.ErrorIs(t, err, ErrKeyWidthMismatch)
}

func TestHostSortMatchesDeviceSort(t *testing.T) {
	dev := createDevice(t)
	sorter, err := New(dev, Key64)
	require.NoError(t, err)
	defer sorter.Close()

	keys := randomKeys(5000, 21)
	records := make([]uint64, len(keys))
	for i, key := range keys {
		records[i] = Pack(key, uint32(i))
	}

	for _, descending := range []bool{false, true} {
		devBuf := device.NewBuffer[uint64](dev, "device")
		require.NoError(t, devBuf.AllocateAndWriteData(records))
		hostBuf := device.NewBuffer[uint64](dev, "host")
		require.NoError(t, hostBuf.AllocateAndWriteData(records))

		opts := Options{Descending: descending}
		_, err = sorter.Sort(devBuf, 4321, opts)
		require.NoError(t, err)
		require.NoError(t, HostSort(hostBuf, 4321, opts))

		devOut := make([]uint64, len(records))
		hostOut := make([]uint64, len(records))
		require.NoError(t, devBuf.ReadData(0, 0, 0, devOut))
		require.NoError(t, hostBuf.ReadData(0, 0, 0, hostOut))
		assert.Equal(t, hostOut, devOut, "descending=%t", descending)
	}
}
