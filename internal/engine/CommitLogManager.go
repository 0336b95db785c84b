package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"github.com/rs/zerolog"

	"simpleseq/internal/model"
	"simpleseq/internal/storage"
)

var (
	ErrCommitLogTimeout = errors.New("timeout after waiting for mutation to be added to commit log")
	ErrNoActiveSegment  = errors.New("no active segment")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type CommitLogFlusher struct {
	active_segment *os.File
	seq_number     uint64
	buffer         bytes.Buffer
	maxBufferBytes int
}

type CommitLogChanelMsg struct {
	data                []byte
	data_bufferred_done chan error
}

type CommitLogCfg struct {
	Path                   string
	EnqueueTimeoutInSecond time.Duration
	FlushIntervalInSecond  time.Duration
	MaxEnqueuingMutation   int
	BufferBytes            int
}

/*
Channel-backed append flow keeps a single writer goroutine in charge of the WAL:
- Ordering: channel preserves request order; single goroutine owns the file handle.
- Backpressure: bounded channel + timeout lets callers fail fast instead of unbounded queueing.
- Durability handshake: per-request done channel lets callers wait until the record is buffered.
- Shutdown: select on context to flush outstanding data before exit.

Append assigns sequence numbers outside the writer goroutine, so callers must
serialize their Append calls (Store does this under its write lock).
*/
type CommitLogManager struct {
	flusher                   CommitLogFlusher
	commitlog_writter_channel chan CommitLogChanelMsg
	cfg                       CommitLogCfg
	flushT                    *time.Ticker
	logger                    zerolog.Logger
	done                      chan struct{}
}

const (
	payloadLenBytes                = 4
	checksumBytes                  = 4
	seqNumBytes                    = 8
	opTypeBytes                    = 1
	lenFieldSize                   = 4
	defaultCommitLogBufferBytes    = 4 * 1024 * 1024
	minimalCommitLogBufferBytes    = 128
	defaultMaxEnqueuingMutationVal = 1024
	defaultFlushInterval           = time.Second
	defaultEnqueueTimeout          = 5 * time.Second
)

func NewCommitLogManager(ctx context.Context, cfg CommitLogCfg, logger zerolog.Logger) (*CommitLogManager, context.CancelFunc, error) {
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open commit log %s: %w", cfg.Path, err)
	}

	seg_number, err := recoverCommitLog(f, logger)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	bufferBytes := cfg.BufferBytes
	if bufferBytes <= 0 {
		bufferBytes = defaultCommitLogBufferBytes
	}
	if bufferBytes < minimalCommitLogBufferBytes {
		bufferBytes = minimalCommitLogBufferBytes
	}

	maxQueue := cfg.MaxEnqueuingMutation
	if maxQueue <= 0 {
		maxQueue = defaultMaxEnqueuingMutationVal
	}
	if cfg.FlushIntervalInSecond <= 0 {
		cfg.FlushIntervalInSecond = defaultFlushInterval
	}
	if cfg.EnqueueTimeoutInSecond <= 0 {
		cfg.EnqueueTimeoutInSecond = defaultEnqueueTimeout
	}

	m := &CommitLogManager{
		cfg:                       cfg,
		commitlog_writter_channel: make(chan CommitLogChanelMsg, maxQueue),
		flushT:                    time.NewTicker(cfg.FlushIntervalInSecond),
		logger:                    logger.With().Str("component", "commitlog").Logger(),
		done:                      make(chan struct{}),
		flusher: CommitLogFlusher{
			active_segment: f,
			seq_number:     seg_number,
			buffer:         bytes.Buffer{},
			maxBufferBytes: bufferBytes,
		},
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(m.done)
		m.run(runCtx)
		m.flushT.Stop()
		_ = m.flusher.active_segment.Close()
	}()
	return m, cancel, nil
}

// Done is closed once the writer goroutine has flushed and closed the log.
func (cm *CommitLogManager) Done() <-chan struct{} {
	return cm.done
}

// Append new mutation durably to the commit log.
// Assigns sequence number to the mutation before encoding and returns it.
func (cm *CommitLogManager) Append(mut model.Mutation) (uint64, error) {
	// Assign sequence number to mutation (establishes total ordering)
	mut.Sequence = cm.flusher.seq_number

	encoded := encodeMutation(mut)
	channelMsg := CommitLogChanelMsg{data: encoded, data_bufferred_done: make(chan error, 1)}

	timer := time.NewTimer(cm.cfg.EnqueueTimeoutInSecond)
	defer timer.Stop()

	select {
	case cm.commitlog_writter_channel <- channelMsg:
	case <-cm.done:
		return 0, ErrNoActiveSegment
	case <-timer.C:
		return 0, ErrCommitLogTimeout
	}

	// Wait until the channelMsg is buffered into commit log writer
	select {
	case err := <-channelMsg.data_bufferred_done:
		if err != nil {
			return 0, err
		}
		// Increment sequence number only on successful buffer write
		cm.flusher.seq_number++
		return mut.Sequence, nil
	case <-cm.done:
		return 0, ErrNoActiveSegment
	}
}

// Load the whole commit log file to build the mutation list.
// Stops at first corrupted or truncated record (crash-safe boundary).
func (cm *CommitLogManager) Load() []model.Mutation {
	return loadCommitLog(cm.cfg.Path, cm.logger)
}

func loadCommitLog(path string, logger zerolog.Logger) []model.Mutation {
	mutations, _, _, err := readCommitLog(path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read commit log")
	}
	return mutations
}

// readCommitLog decodes records until the first truncated or corrupt one. It
// returns the decoded mutations, the offset just past the last valid record
// and the file size.
func readCommitLog(path string, logger zerolog.Logger) ([]model.Mutation, int64, int64, error) {
	mutations := make([]model.Mutation, 0)

	readFile, err := os.Open(path)
	if err != nil {
		return mutations, 0, 0, fmt.Errorf("open commit log for reading: %w", err)
	}
	defer readFile.Close()

	// Get file size to detect truncation
	fileInfo, err := readFile.Stat()
	if err != nil {
		return mutations, 0, 0, fmt.Errorf("stat commit log: %w", err)
	}
	fileSize := fileInfo.Size()

	if fileSize == 0 {
		return mutations, 0, 0, nil
	}

	var offset, validEnd int64
	recordNum := 0

	for offset < fileSize {
		rec := logger.With().Int("record", recordNum).Int64("offset", offset).Logger()

		// Step 1: Read payload length (4 bytes)
		if offset+payloadLenBytes > fileSize {
			rec.Warn().Msg("truncated record: incomplete payload length")
			break
		}
		lenBytes, err := storage.Read(readFile, offset, payloadLenBytes)
		if err != nil {
			rec.Warn().Err(err).Msg("error reading payload length")
			break
		}
		payloadLen := binary.BigEndian.Uint32(lenBytes)
		offset += payloadLenBytes

		// Step 2: Read CRC32C checksum (4 bytes)
		if offset+checksumBytes > fileSize {
			rec.Warn().Msg("truncated record: incomplete checksum")
			break
		}
		crcBytes, err := storage.Read(readFile, offset, checksumBytes)
		if err != nil {
			rec.Warn().Err(err).Msg("error reading checksum")
			break
		}
		expectedChecksum := binary.BigEndian.Uint32(crcBytes)
		offset += checksumBytes

		// Step 3: Read payload (sequence through args)
		if offset+int64(payloadLen) > fileSize {
			rec.Warn().Uint32("expected", payloadLen).Msg("truncated record: incomplete payload")
			break
		}
		payload, err := storage.Read(readFile, offset, int(payloadLen))
		if err != nil {
			rec.Warn().Err(err).Msg("error reading payload")
			break
		}
		offset += int64(payloadLen)

		// Step 4: Validate checksum
		actualChecksum := crc32.Checksum(payload, castagnoli)
		if actualChecksum != expectedChecksum {
			rec.Warn().
				Uint32("expected", expectedChecksum).
				Uint32("actual", actualChecksum).
				Msg("CRC mismatch - stopping at corruption boundary")
			break
		}

		// Step 5: Decode payload fields
		mut, err := decodePayload(payload)
		if err != nil {
			rec.Warn().Err(err).Msg("failed to decode record - stopping")
			break
		}

		mutations = append(mutations, mut)
		validEnd = offset
		recordNum++
	}

	logger.Info().Int("mutations", len(mutations)).Int64("bytes", validEnd).Msg("loaded commit log")
	return mutations, validEnd, fileSize, nil
}

// recoverCommitLog cuts a torn or corrupt tail off the log so new records land
// right after the last valid one, and returns the next sequence number.
func recoverCommitLog(f *os.File, logger zerolog.Logger) (uint64, error) {
	mutations, validEnd, fileSize, err := readCommitLog(f.Name(), logger)
	if err != nil {
		return 0, err
	}
	if validEnd < fileSize {
		logger.Warn().
			Int64("valid_bytes", validEnd).
			Int64("dropped_bytes", fileSize-validEnd).
			Msg("truncating commit log after the last valid record")
		if err := f.Truncate(validEnd); err != nil {
			return 0, fmt.Errorf("truncate commit log: %w", err)
		}
		if err := f.Sync(); err != nil {
			return 0, fmt.Errorf("sync commit log: %w", err)
		}
	}
	if len(mutations) == 0 {
		return 0, nil
	}
	return mutations[len(mutations)-1].Sequence + 1, nil
}

func (cm *CommitLogManager) run(ctx context.Context) {
	for {
		select {
		case channelMsg := <-cm.commitlog_writter_channel:
			// Critical path: Should append commit log to buffer for fail
			err := cm.flusher.write(channelMsg.data)
			channelMsg.data_bufferred_done <- err
		case <-cm.flushT.C:
			if err := cm.flusher.flush(); err != nil {
				cm.logger.Error().Err(err).Msg("commit log periodic flush error")
			}
		case <-ctx.Done():
			cm.logger.Debug().Msg("shutting down - flushing active commit log segment")
			cm.drain()
			if err := cm.flusher.flush(); err != nil {
				cm.logger.Error().Err(err).Msg("commit log shutdown flush error")
			}
			return
		}
	}
}

// drain buffers whatever is already queued so accepted appends are not lost.
func (cm *CommitLogManager) drain() {
	for {
		select {
		case channelMsg := <-cm.commitlog_writter_channel:
			channelMsg.data_bufferred_done <- cm.flusher.write(channelMsg.data)
		default:
			return
		}
	}
}

func (flusher *CommitLogFlusher) write(data []byte) error {
	if flusher.active_segment == nil {
		return ErrNoActiveSegment
	}

	if len(data) > flusher.maxBufferBytes {
		return fmt.Errorf("commit log entry (%d bytes) exceeds buffer size (%d bytes)", len(data), flusher.maxBufferBytes)
	}

	if flusher.buffer.Len()+len(data) > flusher.maxBufferBytes {
		if err := flusher.flush(); err != nil {
			return err
		}
	}

	_, err := flusher.buffer.Write(data)
	return err
}

func (flusher *CommitLogFlusher) flush() error {
	if flusher.active_segment == nil {
		return ErrNoActiveSegment
	}
	if flusher.buffer.Len() == 0 {
		return nil
	}

	if err := storage.Write(flusher.active_segment, flusher.buffer.Bytes()); err != nil {
		return err
	}
	err := flusher.active_segment.Sync()
	if err == nil {
		flusher.buffer.Reset()
	}
	return err
}

/*
Return encoded mutation record for Commit Log. The following table describes the structure of encoded mutation record.

| PayloadLength | CRC32C | Sequence | OpType | NameLen | Name    | ArgsLen | Args    |
|---------------|--------|----------|--------|---------|---------|---------|---------|
| 4 bytes       | 4 bytes| 8 bytes  | 1 byte | 4 bytes | N bytes | 4 bytes | A bytes |

Args is the JSON encoding of model.MutationArgs.
*/
func encodeMutation(mut model.Mutation) []byte {
	payload := make([]byte, 0, seqNumBytes+opTypeBytes+lenFieldSize+len(mut.Name)+lenFieldSize+len(mut.Payload))
	payload = binary.BigEndian.AppendUint64(payload, mut.Sequence)
	payload = append(payload, byte(mut.Op))
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(mut.Name)))
	payload = append(payload, mut.Name...)
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(mut.Payload)))
	payload = append(payload, mut.Payload...)

	record := make([]byte, 0, payloadLenBytes+checksumBytes+len(payload))
	record = binary.BigEndian.AppendUint32(record, uint32(len(payload)))
	record = binary.BigEndian.AppendUint32(record, crc32.Checksum(payload, castagnoli))
	record = append(record, payload...)
	return record
}

// decodePayload extracts Mutation from the payload portion of a WAL record.
// Preserves the original sequence number for crash recovery.
func decodePayload(payload []byte) (model.Mutation, error) {
	minSize := seqNumBytes + opTypeBytes + lenFieldSize + lenFieldSize
	if len(payload) < minSize {
		return model.Mutation{}, fmt.Errorf("payload too short: %d bytes (minimum %d)", len(payload), minSize)
	}

	pos := 0

	seqNum := binary.BigEndian.Uint64(payload[pos : pos+seqNumBytes])
	pos += seqNumBytes

	opType := model.OpsType(payload[pos])
	if !opType.Valid() {
		return model.Mutation{}, fmt.Errorf("invalid operation type: %d", opType)
	}
	pos += opTypeBytes

	nameLen := binary.BigEndian.Uint32(payload[pos : pos+lenFieldSize])
	pos += lenFieldSize

	if pos+int(nameLen) > len(payload) {
		return model.Mutation{}, fmt.Errorf("name length (%d) exceeds payload bounds", nameLen)
	}
	name := make([]byte, nameLen)
	copy(name, payload[pos:pos+int(nameLen)])
	pos += int(nameLen)

	if pos+lenFieldSize > len(payload) {
		return model.Mutation{}, fmt.Errorf("args length field exceeds payload bounds")
	}
	argsLen := binary.BigEndian.Uint32(payload[pos : pos+lenFieldSize])
	pos += lenFieldSize

	if pos+int(argsLen) > len(payload) {
		return model.Mutation{}, fmt.Errorf("args length (%d) exceeds payload bounds", argsLen)
	}

	var args []byte
	if argsLen > 0 {
		args = make([]byte, argsLen)
		copy(args, payload[pos:pos+int(argsLen)])
	}

	return model.Mutation{
		Sequence: seqNum,
		Op:       opType,
		Name:     name,
		Payload:  args,
	}, nil
}
