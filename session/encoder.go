package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const snapshotFormatVersion1 = 1

// ErrSnapshotCorrupt is returned when a stored record cannot be decoded.
var ErrSnapshotCorrupt = errors.New("session snapshot corrupt")

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 65535 {
		return errors.New("snapshot field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode serializes a snapshot with a leading format version byte.
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(snapshotFormatVersion1)

	for _, field := range []string{
		s.UserID, s.DisplayName, s.Email, s.PhoneNumber, s.AvatarURL, s.Provider,
	} {
		if err := writeString(&buf, field); err != nil {
			return nil, err
		}
	}

	if s.EmailVerified {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(s.Method)

	if err := binary.Write(&buf, binary.BigEndian, s.UpdatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode. Unknown versions and truncated
// records are rejected as ErrSnapshotCorrupt.
func Decode(data []byte) (*Snapshot, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSnapshotCorrupt
	}
	if version != snapshotFormatVersion1 {
		return nil, ErrSnapshotCorrupt
	}

	s := &Snapshot{}
	fields := []*string{
		&s.UserID, &s.DisplayName, &s.Email, &s.PhoneNumber, &s.AvatarURL, &s.Provider,
	}
	for _, field := range fields {
		v, err := readString(reader)
		if err != nil {
			return nil, ErrSnapshotCorrupt
		}
		*field = v
	}

	verified, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSnapshotCorrupt
	}
	s.EmailVerified = verified == 1

	method, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSnapshotCorrupt
	}
	s.Method = method

	if err := binary.Read(reader, binary.BigEndian, &s.UpdatedAt); err != nil {
		return nil, ErrSnapshotCorrupt
	}

	if reader.Len() != 0 {
		return nil, ErrSnapshotCorrupt
	}
	return s, nil
}
