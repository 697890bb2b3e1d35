package updater

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrkr/go-crosec/protocol"
)

// errTimeout stands in for the transport's timeout error when the endpoint
// has nothing to say.
var errTimeout = errors.New("transfer timed out")

// simBlock is one block the simulated device accepted.
type simBlock struct {
	base    uint32
	payload []byte
}

// simEC simulates the device side of the update protocol: it answers the
// handshake, reassembles chunked blocks and acknowledges each one with a
// status reply.
type simEC struct {
	maxPacket int

	// flushQueue holds stale data handed out by successive flush reads;
	// once drained the endpoint reads time out
	flushQueue [][]byte

	// startResp is the raw reply to the handshake sentinel
	startResp []byte

	// failStatuses is popped once per block reply; a non-zero entry makes
	// that attempt fail. failAll overrides it and fails every attempt.
	failStatuses []uint32
	failAll      uint32

	sendErr error // injected transport fault on every send

	started      bool
	replyQueue   [][]byte
	pendingBytes int
	curBase      uint32
	curData      []byte

	blocks       []simBlock
	blockReplies int
	chunkSizes   []int
	doneCount    int
}

func newSimEC() *simEC {
	return &simEC{
		maxPacket: 64,
		startResp: protocol.EncodeStartResponse(&protocol.StartResponse{
			ProtocolVersion: 6,
			HeaderType:      1,
			Version:         "cheese_v1.1.1755-4da9520",
			MaximumPDUSize:  128,
			FlashProtection: 0x0B,
			MinRollback:     -1,
			KeyVersion:      2,
			Offset:          0x11000,
		}),
	}
}

func (d *simEC) MaxPacketSize() int { return d.maxPacket }

func (d *simEC) Send(_ context.Context, buf []byte, _ time.Duration) (int, error) {
	if d.sendErr != nil {
		return 0, d.sendErr
	}

	if !d.started {
		hdr, err := protocol.DecodeFrameHeader(buf)
		if err != nil {
			return 0, err
		}
		if hdr.BlockSize == protocol.FrameHeaderSize {
			d.started = true
			d.replyQueue = append(d.replyQueue, d.startResp)
		}
		return len(buf), nil
	}

	if d.pendingBytes > 0 {
		d.chunkSizes = append(d.chunkSizes, len(buf))
		d.curData = append(d.curData, buf...)
		d.pendingBytes -= len(buf)
		if d.pendingBytes <= 0 {
			d.finishBlock()
		}
		return len(buf), nil
	}

	if len(buf) == 4 && binary.BigEndian.Uint32(buf) == protocol.UpdateDoneMagic {
		d.doneCount++
		d.replyQueue = append(d.replyQueue, []byte{0x00})
		return len(buf), nil
	}

	hdr, err := protocol.DecodeFrameHeader(buf)
	if err != nil {
		return 0, err
	}
	d.pendingBytes = int(hdr.BlockSize) - protocol.FrameHeaderSize
	d.curBase = hdr.BlockBase
	d.curData = nil
	return len(buf), nil
}

func (d *simEC) finishBlock() {
	d.blockReplies++
	status := d.failAll
	if status == 0 && len(d.failStatuses) > 0 {
		status = d.failStatuses[0]
		d.failStatuses = d.failStatuses[1:]
	}
	if status == 0 {
		d.blocks = append(d.blocks, simBlock{base: d.curBase, payload: d.curData})
	}
	reply := make([]byte, 4)
	binary.BigEndian.PutUint32(reply, status)
	d.replyQueue = append(d.replyQueue, reply)
	d.pendingBytes = 0
	d.curData = nil
}

func (d *simEC) Recv(_ context.Context, buf []byte, _ time.Duration) (int, error) {
	if len(d.replyQueue) > 0 {
		reply := d.replyQueue[0]
		d.replyQueue = d.replyQueue[1:]
		return copy(buf, reply), nil
	}
	if !d.started && len(d.flushQueue) > 0 {
		stale := d.flushQueue[0]
		d.flushQueue = d.flushQueue[1:]
		return copy(buf, stale), nil
	}
	return 0, errTimeout
}

func TestNew(t *testing.T) {
	dev := newSimEC()

	u := New(dev,
		WithProgressCallback(func(p Progress) {}),
		WithLogger(&captureLogger{}),
		WithSetupRetries(3),
		WithBlockRetries(5),
		WithFlushTimeout(time.Millisecond),
		WithSendTimeout(time.Second),
		WithRecvTimeout(time.Second),
	)
	require.NotNil(t, u)
	assert.Equal(t, 3, u.config.SetupRetries)
	assert.Equal(t, 5, u.config.BlockRetries)
	assert.Nil(t, u.Session())
	assert.Empty(t, u.Describe())

	assert.Panics(t, func() { New(nil) })
}

func TestSetup(t *testing.T) {
	dev := newSimEC()
	u := New(dev)

	session, err := u.Setup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint16(6), session.ProtocolVersion)
	assert.Equal(t, uint16(1), session.HeaderType)
	assert.Equal(t, uint32(0x11000), session.WriteableOffset)
	assert.Equal(t, uint32(128), session.MaxPDUSize)
	assert.Equal(t, uint32(0x0B), session.FlashProtection)
	assert.Equal(t, int32(-1), session.MinRollback)
	assert.Equal(t, uint32(2), session.KeyVersion)
	assert.Equal(t, "cheese", session.Version.BoardName)
	assert.Equal(t, "1.1.1755", session.Version.Triplet)
	assert.Equal(t, "4da9520", session.Version.Hash)
	assert.Same(t, session, u.Session())
}

func TestSetupFlushesStaleData(t *testing.T) {
	dev := newSimEC()
	dev.flushQueue = [][]byte{{0x01, 0x02}, {0x03}}

	u := New(dev)
	_, err := u.Setup(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dev.flushQueue, "all stale data drained")
}

func TestSetupFlushNeverDrains(t *testing.T) {
	dev := newSimEC()
	for i := 0; i < 8; i++ {
		dev.flushQueue = append(dev.flushQueue, []byte{0xEE})
	}

	u := New(dev)
	_, err := u.Setup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to flush device to idle state")
	assert.Contains(t, err.Error(), "retries exhausted after 5 attempts")

	var stale *StaleDataError
	assert.True(t, errors.As(err, &stale))
}

func TestSetupRejectsUnsupportedVersions(t *testing.T) {
	for version := uint16(0); version <= 10; version++ {
		dev := newSimEC()
		resp, err := protocol.DecodeStartResponse(dev.startResp)
		require.NoError(t, err)
		resp.ProtocolVersion = version
		dev.startResp = protocol.EncodeStartResponse(resp)

		u := New(dev)
		_, setupErr := u.Setup(context.Background())

		if version == 5 || version == 6 {
			assert.NoError(t, setupErr, "version %d", version)
			continue
		}
		require.Error(t, setupErr, "version %d", version)
		var unsupported *protocol.UnsupportedVersionError
		require.True(t, errors.As(setupErr, &unsupported), "version %d", version)
		assert.Equal(t, version, unsupported.Version)
	}
}

func TestSetupDeviceReportedError(t *testing.T) {
	dev := newSimEC()
	resp, err := protocol.DecodeStartResponse(dev.startResp)
	require.NoError(t, err)
	resp.ReturnValue = 42
	dev.startResp = protocol.EncodeStartResponse(resp)

	u := New(dev)
	_, setupErr := u.Setup(context.Background())
	require.Error(t, setupErr)

	var devErr *DeviceError
	require.True(t, errors.As(setupErr, &devErr))
	assert.Equal(t, uint32(42), devErr.Code)
}

func TestSetupLegacyResponse(t *testing.T) {
	dev := newSimEC()
	dev.startResp = []byte{0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x00}

	u := New(dev)
	_, err := u.Setup(context.Background())
	require.Error(t, err)

	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
	assert.Equal(t, uint32(7), devErr.Code)
}

func TestSetupTruncatedResponse(t *testing.T) {
	dev := newSimEC()
	dev.startResp = []byte{0x00, 0x06, 0x00}

	u := New(dev)
	_, err := u.Setup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send start request")
	assert.Contains(t, err.Error(), "retries exhausted")

	var truncated *protocol.TruncatedResponseError
	assert.True(t, errors.As(err, &truncated))
}

func TestSetupMalformedVersion(t *testing.T) {
	dev := newSimEC()
	resp, err := protocol.DecodeStartResponse(dev.startResp)
	require.NoError(t, err)
	resp.Version = "garbage"
	dev.startResp = protocol.EncodeStartResponse(resp)

	u := New(dev)
	_, setupErr := u.Setup(context.Background())
	require.Error(t, setupErr)

	var parseErr *protocol.VersionParseError
	assert.True(t, errors.As(setupErr, &parseErr))
}

func TestDescribe(t *testing.T) {
	dev := newSimEC()
	u := New(dev)
	_, err := u.Setup(context.Background())
	require.NoError(t, err)

	out := u.Describe()
	assert.Contains(t, out, "GitHash:")
	assert.Contains(t, out, "4da9520")
	assert.Contains(t, out, "ProtocolVersion:")
	assert.Contains(t, out, "MaxPDUSize:")
	assert.Contains(t, out, "128")
	assert.Contains(t, out, "RawVersion:")
	assert.Contains(t, out, "cheese_v1.1.1755-4da9520")
	assert.Contains(t, out, "WriteableOffset:")
	assert.Contains(t, out, "0x11000")
	assert.Contains(t, out, "MinRollback:")
}

// captureLogger records messages for assertions.
type captureLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *captureLogger) Debug(msg string, _ ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *captureLogger) Info(msg string, _ ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *captureLogger) Error(msg string, _ ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}
