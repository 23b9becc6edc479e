package sim

// simDevice is one simulated accelerator: a device-resident data buffer, a
// device-resident staging buffer, a host-resident mirror of the device's
// data, and a host-resident staging buffer, plus a fixed pool of queues.
// This mirrors the reference executor's per-device dev_buffer /
// staging_buffer / host_buffer / host_staging_buffer allocations.
type simDevice struct {
	id   int
	name string

	devBuffer         *arena
	stagingBuffer     *arena
	hostBuffer        *arena
	hostStagingBuffer *arena

	queues []*queue
}

func newSimDevice(id int, bufferSize int64, queuesPerDevice int) *simDevice {
	d := &simDevice{
		id:                id,
		name:              deviceName(id),
		devBuffer:         newArena(bufferSize),
		stagingBuffer:     newArena(bufferSize),
		hostBuffer:        newArena(bufferSize),
		hostStagingBuffer: newArena(bufferSize),
	}
	d.queues = make([]*queue, queuesPerDevice)
	for i := range d.queues {
		d.queues[i] = newQueue()
	}
	return d
}

func deviceName(id int) string {
	names := [...]string{"sim-gpu-0", "sim-gpu-1", "sim-gpu-2", "sim-gpu-3", "sim-gpu-4", "sim-gpu-5", "sim-gpu-6", "sim-gpu-7"}
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return "sim-gpu-n"
}

func (d *simDevice) queue(idx int) *queue {
	return d.queues[idx%len(d.queues)]
}

func (d *simDevice) close() {
	for _, q := range d.queues {
		q.wait()
		q.close()
	}
}
